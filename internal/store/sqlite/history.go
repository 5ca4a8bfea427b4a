package sqlite

import (
	"context"
	"fmt"
	"time"

	"liquid/internal/store"
)

// Timestamps are stored as fixed-width RFC 3339 strings so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func (c *Client) Append(ctx context.Context, rec store.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, `
	INSERT INTO history (id, session_id, state, digest, recorded_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.SessionID, string(rec.State), rec.Digest, rec.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("appending history record: %w", err)
	}
	return nil
}

func (c *Client) List(ctx context.Context, opts store.ListOptions) ([]store.Record, error) {
	query := `
	SELECT id, session_id, state, digest, recorded_at
	FROM history
	WHERE (? = '' OR session_id = ?)
	ORDER BY recorded_at DESC, id
	LIMIT ?`

	rows, err := c.db.QueryContext(ctx, query, opts.SessionID, opts.SessionID, opts.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	records := []store.Record{}
	for rows.Next() {
		var (
			rec        store.Record
			state      string
			recordedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &state, &rec.Digest, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning history record: %w", err)
		}
		at, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at %q: %w", recordedAt, err)
		}
		rec.State = []byte(state)
		rec.Timestamp = at
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return records, nil
}
