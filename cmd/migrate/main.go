package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"

	"chatauth/internal/config"
	"chatauth/internal/database"
	"chatauth/migrations"
)

func main() {
	dir := flag.String("dir", "", "directory with *.up.sql files (default: built-in migrations)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(context.Background(), database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: int32(cfg.DBMaxConns),
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var fsys fs.FS = migrations.Files
	if *dir != "" {
		fsys = os.DirFS(*dir)
	}

	if err := database.ApplyMigrations(context.Background(), db, fsys); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	log.Println("migrations applied")
}
