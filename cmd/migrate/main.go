package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	eventdb "ms-rsvp/internal/events/db"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer sqldb.Close()

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if err := eventdb.Migrate(context.Background(), bunDB); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	log.Println("events and server_configs tables ready")
}
