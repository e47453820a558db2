package execution

import (
	"context"
	"time"

	"pfpp/internal/domain"
)

// Executor translates a set of sources and returns their results
type Executor interface {
	Execute(ctx context.Context, sources []string) ([]domain.TranslationResult, time.Duration, error)
}
