// Package logging builds the application logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a zap logger for the given mode. "production" emits JSON
// at info level; "development" emits console output at debug level.
func New(mode string) (*zap.Logger, error) {
	switch mode {
	case "production":
		logger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("failed to build production logger: %w", err)
		}
		return logger, nil
	case "development", "":
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("failed to build development logger: %w", err)
		}
		return logger, nil
	}
	return nil, fmt.Errorf("unknown log mode %q", mode)
}
