package main

import (
	"context"
	"fmt"

	"liquid/internal/config"
	"liquid/internal/store"
	"liquid/internal/store/postgres"
	"liquid/internal/store/sqlite"
)

// openStore picks the client by DSN scheme. An empty DSN disables the store.
func openStore(ctx context.Context, dsn string) (store.Store, error) {
	scheme, err := config.StoreScheme(dsn)
	if err != nil {
		return nil, err
	}
	switch scheme {
	case "postgres":
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "sqlite":
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}
