package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"emoji-wolf/internal/config"
	"emoji-wolf/internal/db"
	"emoji-wolf/internal/server"

	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn := openDatabase(cfg)
	srv := server.New(conn, cfg)
	if err := srv.RestoreActiveRooms(); err != nil {
		log.Printf("room restore skipped error=%v", err)
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	log.Printf("emoji-wolf server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}

func openDatabase(cfg config.Config) *gorm.DB {
	conn, err := db.Open(db.PoolConfig{
		MaxOpenConns:           cfg.DBMaxOpenConns,
		MaxIdleConns:           cfg.DBMaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.DBConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.DBConnMaxIdleTimeSeconds,
	})
	if err != nil {
		if errors.Is(err, db.ErrNoDatabase) {
			log.Println("DATABASE_URL not set, running without persistence")
			return nil
		}
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	return conn
}
