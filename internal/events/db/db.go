package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-rsvp/internal/events"
	"ms-rsvp/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- EVENTS ----------------

// ListEvents → every known event, oldest first. Reconciliation walks this.
func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var evts []models.Event
	err := d.Bun.NewSelect().
		Model(&evts).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return evts, nil
}

// GetEventByMessageID → the single event bound to a chat message.
func (d *DB) GetEventByMessageID(ctx context.Context, messageID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("message_id = ?", messageID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event by message %s: %w", messageID, err)
	}
	return &event, nil
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	if event.Participants == nil {
		event.Participants = []string{}
	}
	_, err := d.Bun.NewInsert().
		Model(&event).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create event %s: %w", event.ID, err)
	}
	return nil
}

// PatchParticipants replaces the stored participant set. Nothing else on the
// row is touched.
func (d *DB) PatchParticipants(ctx context.Context, eventID string, participants []string) error {
	if participants == nil {
		participants = []string{}
	}
	event := models.Event{ID: eventID, Participants: participants}
	res, err := d.Bun.NewUpdate().
		Model(&event).
		Column("participants").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("patch participants for event %s: %w", eventID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (d *DB) DeleteEvent(ctx context.Context, eventID string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return events.ErrNotFound
	}
	return nil
}

// ---------------- SERVER CONFIGS ----------------

func (d *DB) GetServerConfig(ctx context.Context, serverID string) (*models.ServerConfig, error) {
	var cfg models.ServerConfig
	err := d.Bun.NewSelect().
		Model(&cfg).
		Where("server_id = ?", serverID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get server config %s: %w", serverID, err)
	}
	return &cfg, nil
}

func (d *DB) ListServerConfigs(ctx context.Context) ([]models.ServerConfig, error) {
	var cfgs []models.ServerConfig
	err := d.Bun.NewSelect().
		Model(&cfgs).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list server configs: %w", err)
	}
	return cfgs, nil
}

// UpsertServerConfig creates a server's config or moves it to a new channel
// and language in place.
func (d *DB) UpsertServerConfig(ctx context.Context, cfg models.ServerConfig) error {
	cfg.UpdatedAt = time.Now()
	_, err := d.Bun.NewInsert().
		Model(&cfg).
		On("CONFLICT (server_id) DO UPDATE").
		Set("channel_id = EXCLUDED.channel_id").
		Set("lang = EXCLUDED.lang").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert server config %s: %w", cfg.ServerID, err)
	}
	return nil
}
