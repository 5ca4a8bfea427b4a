package sqlite

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS history (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL,
		state       TEXT NOT NULL CHECK (json_valid(state)),
		digest      TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_recorded_at ON history (recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_history_session ON history (session_id, recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_history_digest ON history (digest);
	`
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
