package clickhouse

import (
	"context"
	"fmt"
	"time"
)

// CompositionEvent records one compose run for order analytics.
type CompositionEvent struct {
	Timestamp time.Time
	Items     uint32
	Loaded    uint32
	Failed    uint32
	Bytes     uint64
}

// MatchEvent records one receipt-match run.
type MatchEvent struct {
	Timestamp  time.Time
	Lines      uint32
	Resolved   uint32
	Unresolved uint32
}

const createEventsTables = `
CREATE TABLE IF NOT EXISTS composition_events (
	timestamp DateTime,
	items     UInt32,
	loaded    UInt32,
	failed    UInt32,
	bytes     UInt64
) ENGINE = MergeTree()
ORDER BY timestamp
`

const createMatchTable = `
CREATE TABLE IF NOT EXISTS match_events (
	timestamp  DateTime,
	lines      UInt32,
	resolved   UInt32,
	unresolved UInt32
) ENGINE = MergeTree()
ORDER BY timestamp
`

// EnsureSchema creates the analytics tables if they do not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createEventsTables); err != nil {
		return fmt.Errorf("failed to create composition_events: %w", err)
	}
	if err := c.conn.Exec(ctx, createMatchTable); err != nil {
		return fmt.Errorf("failed to create match_events: %w", err)
	}
	return nil
}

// RecordComposition stores one composition event.
func (c *Client) RecordComposition(ctx context.Context, e CompositionEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	err := c.conn.Exec(ctx,
		`INSERT INTO composition_events (timestamp, items, loaded, failed, bytes) VALUES (?, ?, ?, ?, ?)`,
		e.Timestamp, e.Items, e.Loaded, e.Failed, e.Bytes,
	)
	if err != nil {
		return fmt.Errorf("failed to record composition event: %w", err)
	}
	return nil
}

// RecordMatch stores one match event.
func (c *Client) RecordMatch(ctx context.Context, e MatchEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	err := c.conn.Exec(ctx,
		`INSERT INTO match_events (timestamp, lines, resolved, unresolved) VALUES (?, ?, ?, ?)`,
		e.Timestamp, e.Lines, e.Resolved, e.Unresolved,
	)
	if err != nil {
		return fmt.Errorf("failed to record match event: %w", err)
	}
	return nil
}

// Summary aggregates usage over the last N days.
type Summary struct {
	Compositions uint64
	TilesLoaded  uint64
	TilesFailed  uint64
	Matches      uint64
	Resolved     uint64
	Unresolved   uint64
}

// UsageSummary returns aggregate counts for the last days days.
func (c *Client) UsageSummary(ctx context.Context, days int) (*Summary, error) {
	since := time.Now().AddDate(0, 0, -days)
	var s Summary

	row := c.conn.QueryRow(ctx,
		`SELECT count(), sum(loaded), sum(failed) FROM composition_events WHERE timestamp >= ?`, since)
	if err := row.Scan(&s.Compositions, &s.TilesLoaded, &s.TilesFailed); err != nil {
		return nil, fmt.Errorf("failed to query composition summary: %w", err)
	}

	row = c.conn.QueryRow(ctx,
		`SELECT count(), sum(resolved), sum(unresolved) FROM match_events WHERE timestamp >= ?`, since)
	if err := row.Scan(&s.Matches, &s.Resolved, &s.Unresolved); err != nil {
		return nil, fmt.Errorf("failed to query match summary: %w", err)
	}

	return &s, nil
}
