package main

import (
	"context"

	"github.com/jomarcello/Waviate/internal/config"
	"github.com/jomarcello/Waviate/internal/database"
	"github.com/jomarcello/Waviate/internal/logger"
)

// Copies the local SQLite store (DB_PATH) into the PostgreSQL database described by DB_*.
func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	srcCfg := cfg.Database
	srcCfg.Driver = "sqlite"
	src, err := database.Open(srcCfg)
	if err != nil {
		log.Fatalw("failed to open SQLite source", "path", srcCfg.Path, "error", err)
	}
	log.Infow("connected to SQLite", "path", srcCfg.Path)

	dstCfg := cfg.Database
	dstCfg.Driver = "postgres"
	dst, err := database.Open(dstCfg)
	if err != nil {
		log.Fatalw("failed to open PostgreSQL destination", "host", dstCfg.Host, "error", err)
	}

	log.Infow("starting data migration")
	stats, err := database.Copy(context.Background(), src, dst)
	if err != nil {
		log.Fatalw("migration failed", "error", err)
	}

	log.Infow("migration completed",
		"leads", stats.Leads,
		"conversations", stats.Conversations,
		"messages", stats.Messages,
	)
}
