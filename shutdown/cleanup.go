package shutdown

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CleanupTempFiles returns a hook that removes files in dir whose names
// start with prefix. Errors are logged rather than returned so a stuck
// file cannot fail the whole shutdown.
func CleanupTempFiles(logger *zap.Logger, dir, prefix string) Func {
	return func(ctx context.Context) error {
		matches, err := filepath.Glob(filepath.Join(dir, prefix+"*"))
		if err != nil {
			logger.Error("Failed to list temporary files", zap.String("directory", dir), zap.Error(err))
			return nil
		}
		if len(matches) == 0 {
			return nil
		}

		var removed, failed int
		for _, match := range matches {
			if ctx.Err() != nil {
				logger.Warn("Shutdown context cancelled during cleanup",
					zap.Int("removed", removed),
					zap.Int("remaining", len(matches)-removed-failed),
				)
				return nil
			}
			if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
				failed++
				logger.Warn("Failed to remove temporary file",
					zap.String("file", filepath.Base(match)),
					zap.Error(err),
				)
				continue
			}
			removed++
		}

		logger.Info("Temp file cleanup complete",
			zap.Int("removed", removed),
			zap.Int("failed", failed),
		)
		return nil
	}
}
