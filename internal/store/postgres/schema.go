package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS history (
    id          UUID PRIMARY KEY,
    session_id  TEXT NOT NULL,
    state       JSONB NOT NULL,
    digest      TEXT NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_history_recorded_at ON history (recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_history_session ON history (session_id, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_history_digest ON history (digest);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
