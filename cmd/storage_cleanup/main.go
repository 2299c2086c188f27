package main

import (
	"context"
	"log"
	"os"
	"time"

	"imagevault/internal/config"
	"imagevault/internal/database"
	"imagevault/internal/repository"
	"imagevault/internal/storage"
)

// storage_cleanup removes files under UPLOAD_DIR that no upload record
// references, such as objects left behind by a failed compensation.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.StorageDriver != config.DriverLocal {
		log.Fatalf("storage cleanup only supports STORAGE_DRIVER=local (got %s)", cfg.StorageDriver)
	}

	grace := time.Hour
	if v := os.Getenv("CLEANUP_GRACE"); v != "" {
		if grace, err = time.ParseDuration(v); err != nil {
			log.Fatalf("invalid CLEANUP_GRACE value %q: %v", v, err)
		}
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	local, err := storage.NewLocalStorage(cfg.UploadDir, cfg.UploadPublicBase)
	if err != nil {
		log.Fatalf("open upload dir: %v", err)
	}

	uploads := repository.NewUploadRepository(db)
	removed, err := local.SweepOrphans(context.Background(), time.Now().Add(-grace), uploads.KeyExists)
	if err != nil {
		log.Fatalf("storage cleanup failed after %d files: %v", removed, err)
	}

	log.Printf("storage cleanup completed: removed=%d grace=%s", removed, grace)
}
