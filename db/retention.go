package db

import (
	"context"
	"time"
)

// DefaultRetentionInterval is how often old usage rows are pruned.
const DefaultRetentionInterval = time.Hour

// FilePruner deletes stored files older than a cutoff.
type FilePruner interface {
	PruneBefore(cutoff time.Time) (int64, error)
}

// RetentionConfig controls StartRetention.
type RetentionConfig struct {
	// Retention is how long rows are kept. Zero disables pruning.
	Retention time.Duration
	// Interval is how often to prune (default one hour)
	Interval time.Duration
	// OnPrune is called after each run (optional)
	OnPrune func(deleted int64, err error)

	// Files is swept on the same ticker when FileRetention is positive.
	Files         FilePruner
	FileRetention time.Duration
	// OnFilePrune is called after each file sweep (optional)
	OnFilePrune func(deleted int64, err error)

	// Now is the clock, for tests (default time.Now)
	Now func() time.Time
}

// StartRetention prunes once immediately and then every Interval until ctx
// is cancelled. It returns a channel that is closed when the goroutine exits.
func StartRetention(ctx context.Context, repo *UsageRepository, cfg RetentionConfig) <-chan struct{} {
	done := make(chan struct{})

	pruneRows := cfg.Retention > 0 && repo != nil
	pruneFiles := cfg.FileRetention > 0 && cfg.Files != nil
	if !pruneRows && !pruneFiles {
		close(done)
		return done
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRetentionInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	prune := func() {
		now := cfg.Now()
		if pruneRows {
			deleted, err := repo.PruneBefore(ctx, now.Add(-cfg.Retention))
			if cfg.OnPrune != nil {
				cfg.OnPrune(deleted, err)
			}
		}
		if pruneFiles {
			deleted, err := cfg.Files.PruneBefore(now.Add(-cfg.FileRetention))
			if cfg.OnFilePrune != nil {
				cfg.OnFilePrune(deleted, err)
			}
		}
	}

	go func() {
		defer close(done)
		prune()

		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				prune()
			}
		}
	}()
	return done
}
