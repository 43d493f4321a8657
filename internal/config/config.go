package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Bot      BotConfig
	Chat     ChatConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type BotConfig struct {
	// UserID is the bot's own account; it never counts as a participant.
	UserID        string
	AttendEmoji   string
	DeclineEmoji  string
	SignalTimeout time.Duration
}

type ChatConfig struct {
	GatewayURL string
	Token      string
	Timeout    time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Topics  TopicConfig
	Enabled bool
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type TopicConfig struct {
	ReactionSignals string
	DeleteSignals   string
	EventCreated    string
	EventDeleted    string
	RSVPUpdated     string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8086"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Bot: BotConfig{
			UserID:        getEnv("BOT_USER_ID", ""),
			AttendEmoji:   getEnv("ATTEND_EMOJI", "✅"),
			DeclineEmoji:  getEnv("DECLINE_EMOJI", "❌"),
			SignalTimeout: time.Duration(getEnvInt("SIGNAL_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Chat: ChatConfig{
			GatewayURL: getEnv("CHAT_GATEWAY_URL", "http://localhost:8087"),
			Token:      getEnv("CHAT_BOT_TOKEN", ""),
			Timeout:    time.Duration(getEnvInt("CHAT_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Database: DatabaseConfig{
			DSN:          getEnv("POSTGRES_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			GroupID: getEnv("KAFKA_GROUP_ID", "rsvp-engine-group"),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				ReactionSignals: getEnv("KAFKA_TOPIC_REACTIONS", "rsvp.reaction.signals"),
				DeleteSignals:   getEnv("KAFKA_TOPIC_DELETES", "rsvp.delete.signals"),
				EventCreated:    getEnv("KAFKA_TOPIC_CREATED", "rsvp.event.created"),
				EventDeleted:    getEnv("KAFKA_TOPIC_DELETED", "rsvp.event.deleted"),
				RSVPUpdated:     getEnv("KAFKA_TOPIC_UPDATED", "rsvp.event.updated"),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
