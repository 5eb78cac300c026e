package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"seotools/catalog"
	"seotools/db"
	"seotools/logging"
)

// UsageStore persists and reports tool usage.
type UsageStore interface {
	Insert(ctx context.Context, rec db.UsageRecord) (int64, error)
	Summary(ctx context.Context, since time.Time) ([]db.ToolSummary, error)
}

// usageInsertTimeout bounds the synchronous fallback insert.
const usageInsertTimeout = 5 * time.Second

// recordUsage writes a UsageRecord for every POST to a catalogued tool and
// hands it to publish when set. Failures are logged and never reach the
// client.
func recordUsage(store UsageStore, tools *catalog.Catalog, logger *logging.Logger, trustProxy bool, publish func(db.UsageRecord)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, isTool := strings.CutPrefix(r.URL.Path, catalog.EndpointPrefix)
			if !isTool || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if _, known := tools.Lookup(id); !known {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			rec := db.UsageRecord{
				RequestID:  RequestID(r.Context()),
				Tool:       id,
				IPAddress:  clientIP(r, trustProxy),
				UserAgent:  r.UserAgent(),
				StatusCode: wrapped.statusCode,
				DurationMS: time.Since(start).Milliseconds(),
				CreatedAt:  start,
			}

			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), usageInsertTimeout)
			defer cancel()
			if _, err := store.Insert(ctx, rec); err != nil {
				logger.Warn("failed to record tool usage",
					zap.String("tool", id),
					zap.String("request_id", rec.RequestID),
					zap.Error(err))
			}
			if publish != nil {
				publish(rec)
			}
		})
	}
}
