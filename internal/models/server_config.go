package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ServerConfig binds a chat server to the channel events are announced in
// and the language used when rendering them.
type ServerConfig struct {
	bun.BaseModel `bun:"table:server_configs"`

	ServerID  string    `bun:"server_id,pk" json:"server_id"`
	ChannelID string    `bun:"channel_id,notnull" json:"channel_id"`
	Lang      string    `bun:"lang,notnull" json:"lang"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}
