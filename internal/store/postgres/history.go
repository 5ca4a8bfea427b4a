package postgres

import (
	"context"
	"fmt"
	"time"

	"liquid/internal/store"
)

func (c *Client) Append(ctx context.Context, rec store.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	_, err := c.pool.Exec(ctx, `
INSERT INTO history (id, session_id, state, digest, recorded_at)
VALUES ($1, $2, $3::jsonb, $4, $5)
ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.SessionID, string(rec.State), rec.Digest, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("appending history record: %w", err)
	}
	return nil
}

func (c *Client) List(ctx context.Context, opts store.ListOptions) ([]store.Record, error) {
	sql := `
SELECT id::text, session_id, state::text, digest, recorded_at
FROM history
WHERE ($1 = '' OR session_id = $1)
ORDER BY recorded_at DESC, id
LIMIT $2
`

	rows, err := c.pool.Query(ctx, sql, opts.SessionID, opts.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	records := []store.Record{}
	for rows.Next() {
		var (
			rec   store.Record
			state string
			at    time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &state, &rec.Digest, &at); err != nil {
			return nil, fmt.Errorf("scanning history record: %w", err)
		}
		rec.State = []byte(state)
		rec.Timestamp = at.UTC()
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return records, nil
}
