// Command migrate copies every portal collection from one store driver to
// another, rewriting support messages into their canonical form on the way.
//
//	go run ./scripts -from file -to redis
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"betportal/internal/config"
	"betportal/internal/models"
	"betportal/internal/support"
	"betportal/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	from := flag.String("from", "file", "source driver: file, redis or mongo")
	to := flag.String("to", "", "destination driver: file, redis or mongo")
	dataDir := flag.String("data-dir", "", "override DATA_DIR for the file driver")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using environment variables")
	}
	cfg := config.Load()
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if *to == "" || *to == *from {
		log.Fatalf("Destination driver must be set and differ from %q", *from)
	}

	src, err := open(*from, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open source %s: %v", *from, err)
	}
	defer src.Close()
	dst, err := open(*to, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open destination %s: %v", *to, err)
	}
	defer dst.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := database.Copy(ctx, src, dst, database.AllCollections, canonicalizeSupport)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Copied: %v", report.Copied)
	if len(report.Missing) > 0 {
		log.Printf("Not present in source: %v", report.Missing)
	}
	if len(report.Invalid) > 0 {
		log.Printf("Skipped invalid JSON: %v", report.Invalid)
	}
}

func open(driver string, cfg config.StorageConfig) (database.Backend, error) {
	switch driver {
	case "redis":
		return database.NewRedisBackend(cfg.Redis.URL, cfg.Redis.Prefix)
	case "mongo":
		return database.NewMongoBackend(database.MongoConfig{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		})
	default:
		return database.NewFileBackend(cfg.DataDir)
	}
}

// canonicalizeSupport replaces legacy to/from addressing with thread keys
func canonicalizeSupport(collection string, data []byte) ([]byte, error) {
	if collection != database.ChatSupport {
		return data, nil
	}
	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return data, nil
	}
	return json.MarshalIndent(support.CanonicalizeAll(messages), "", "  ")
}
