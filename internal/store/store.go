package store

import (
	"context"
	"errors"
)

var ErrInvalidRecord = errors.New("invalid history record")

// Store is the append-only history log of recovered model payloads.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, opts ListOptions) ([]Record, error)
}

type ListOptions struct {
	SessionID string
	Limit     int
}

const DefaultListLimit = 50

// EffectiveLimit clamps Limit into the range clients accept.
func (o ListOptions) EffectiveLimit() int {
	switch {
	case o.Limit <= 0:
		return DefaultListLimit
	case o.Limit > 1000:
		return 1000
	default:
		return o.Limit
	}
}
