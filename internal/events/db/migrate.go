package db

import (
	"context"
	"fmt"

	"ms-rsvp/internal/models"

	"github.com/uptrace/bun"
)

// Migrate creates the events and server_configs tables if they are missing.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*models.Event)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*models.ServerConfig)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create server_configs table: %w", err)
	}

	return nil
}
