package db

import (
	"context"
	"fmt"
	"time"
)

// UsageRecord is one row of tool_usage: a single /api/tools request.
type UsageRecord struct {
	ID         int64
	RequestID  string
	Tool       string
	IPAddress  string
	UserAgent  string
	StatusCode int
	DurationMS int64
	CreatedAt  time.Time
}

// ToolSummary aggregates usage of one tool over a time range.
type ToolSummary struct {
	Tool          string    `json:"tool"`
	Requests      int64     `json:"requests"`
	Errors        int64     `json:"errors"`
	AvgDurationMS float64   `json:"avgDurationMs"`
	LastUsed      time.Time `json:"lastUsed"`
}

// UsageRepository reads and writes tool_usage. Inserts go through the async
// writer when one is running and fall back to a direct insert when its
// buffer is full.
type UsageRepository struct {
	db     *Database
	writer *AsyncWriter[UsageRecord]
}

// NewUsageRepository creates a repository. writer may be nil, in which
// case every insert is synchronous.
func NewUsageRepository(database *Database, writer *AsyncWriter[UsageRecord]) *UsageRepository {
	return &UsageRepository{db: database, writer: writer}
}

// NewUsageWriter returns an AsyncWriter whose handler inserts into
// database. Pass it to NewUsageRepository after calling Start.
func NewUsageWriter(database *Database, capacity int, onError func(UsageRecord, error)) *AsyncWriter[UsageRecord] {
	direct := &UsageRepository{db: database}
	return NewAsyncWriter(capacity, func(rec UsageRecord) error {
		// Background inserts are bounded so a locked database cannot wedge the writer.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := direct.insert(ctx, rec)
		return err
	}, onError)
}

const insertUsageQuery = `
	INSERT INTO tool_usage (
		request_id, tool, ip_address, user_agent, status_code, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

// Insert records rec. Returns the row id, or 0 when the write was queued.
func (r *UsageRepository) Insert(ctx context.Context, rec UsageRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if r.writer != nil && r.writer.Write(rec) {
		return 0, nil
	}
	return r.insert(ctx, rec)
}

func (r *UsageRepository) insert(ctx context.Context, rec UsageRecord) (int64, error) {
	if rec.Tool == "" {
		return 0, fmt.Errorf("usage record has no tool")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, insertUsageQuery,
		rec.RequestID,
		rec.Tool,
		rec.IPAddress,
		rec.UserAgent,
		rec.StatusCode,
		rec.DurationMS,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tool usage: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// Count returns the number of stored usage rows.
func (r *UsageRepository) Count(ctx context.Context) (int64, error) {
	row, err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tool_usage`)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tool usage: %w", err)
	}
	return n, nil
}

// Summary aggregates usage per tool for rows created at or after since,
// busiest tool first. Status codes of 400 and above count as errors.
func (r *UsageRepository) Summary(ctx context.Context, since time.Time) ([]ToolSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tool,
		       COUNT(*),
		       SUM(CASE WHEN status_code >= 400 THEN 1 ELSE 0 END),
		       AVG(duration_ms),
		       MAX(created_at)
		FROM tool_usage
		WHERE created_at >= ?
		GROUP BY tool
		ORDER BY COUNT(*) DESC, tool ASC`,
		since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}
	defer rows.Close()

	summaries := []ToolSummary{}
	for rows.Next() {
		var s ToolSummary
		var lastUsed int64
		if err := rows.Scan(&s.Tool, &s.Requests, &s.Errors, &s.AvgDurationMS, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		s.LastUsed = time.UnixMilli(lastUsed).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage summary: %w", err)
	}
	return summaries, nil
}

// Recent returns the newest rows first. A non-positive limit means 20.
func (r *UsageRepository) Recent(ctx context.Context, limit int) ([]UsageRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, tool, ip_address, user_agent, status_code, duration_ms, created_at
		FROM tool_usage
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent usage: %w", err)
	}
	defer rows.Close()

	var records []UsageRecord
	for rows.Next() {
		var rec UsageRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.RequestID, &rec.Tool, &rec.IPAddress,
			&rec.UserAgent, &rec.StatusCode, &rec.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}
	return records, nil
}

// PruneBefore deletes rows created before cutoff and returns how many went.
func (r *UsageRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tool_usage WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune tool usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
