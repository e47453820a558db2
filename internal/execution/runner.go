package execution

import (
	"time"

	"go.uber.org/zap"

	"pfpp/internal/config"
	"pfpp/internal/domain"
	"pfpp/internal/preprocessor"
)

// Runner translates a single source file
type Runner struct {
	config     *config.Config
	translator *preprocessor.Translator
	logger     *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, translator *preprocessor.Translator, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{config: cfg, translator: translator, logger: logger}
}

// Run translates source into its configured target
func (r *Runner) Run(source string, workerID int) domain.TranslationResult {
	start := time.Now()
	target := r.config.TargetPath(source)

	r.logger.Debug("translating",
		zap.Int("worker", workerID),
		zap.String("source", source),
		zap.String("target", target),
	)

	res, err := r.translator.TranslateFile(source, target)
	result := domain.TranslationResult{
		Source:   source,
		Target:   target,
		Success:  err == nil,
		Error:    err,
		Duration: time.Since(start),
	}
	if err != nil {
		r.logger.Debug("translation failed", zap.String("source", source), zap.Error(err))
		return result
	}

	result.SuiteName = res.SuiteName
	result.WrapModule = res.WrapModule
	result.Tests = res.TestNames()
	result.Registrations = res.Registrations
	return result
}
