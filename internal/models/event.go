package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           string    `bun:"id,pk" json:"id"`
	ServerID     string    `bun:"server_id,notnull" json:"server_id"`
	ChannelID    string    `bun:"channel_id,notnull" json:"channel_id"`
	MessageID    string    `bun:"message_id,notnull,unique" json:"message_id"`
	AuthorID     string    `bun:"author_id,notnull" json:"author_id"`
	Title        string    `bun:"title,notnull" json:"title"`
	Description  string    `bun:"description" json:"description"`
	Date         time.Time `bun:"date,notnull" json:"date"`
	Image        string    `bun:"image" json:"image,omitempty"`
	Participants []string  `bun:"participants" json:"participants"`
	CreatedAt    time.Time `bun:"created_at" json:"created_at"`
}

type CreateEventRequest struct {
	ServerID    string    `json:"server_id"`
	ChannelID   string    `json:"channel_id"`
	AuthorID    string    `json:"author_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Image       string    `json:"image,omitempty"`
}
