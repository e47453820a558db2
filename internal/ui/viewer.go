package ui

import "pfpp/internal/domain"

// Viewer displays a batch manifest in an interactive TUI
type Viewer interface {
	View(manifest *domain.Manifest) error
}
