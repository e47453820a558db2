package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"pfpp/internal/storage"
	"pfpp/internal/ui"
)

// InspectCommand handles the inspect command
type InspectCommand struct {
	storage storage.Storage
	viewer  ui.Viewer
}

// NewInspectCommand creates a new InspectCommand
func NewInspectCommand(st storage.Storage, viewer ui.Viewer) *InspectCommand {
	return &InspectCommand{
		storage: st,
		viewer:  viewer,
	}
}

// Execute runs the command
func (ic *InspectCommand) Execute(cmd *cobra.Command, args []string) error {
	manifest, err := ic.storage.Load()
	if err != nil {
		return fmt.Errorf("no batch run to inspect (run 'pfpp batch' first): %w", err)
	}
	return ic.viewer.View(manifest)
}
