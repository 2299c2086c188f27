package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"imagevault/internal/config"
	"imagevault/internal/database"
	"imagevault/internal/domain"
	"imagevault/internal/modules/auth"
	"imagevault/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// seed creates the admin account, or promotes it when the email is already
// registered. Admins cannot be created through the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	username := strings.TrimSpace(os.Getenv("SEED_ADMIN_USERNAME"))
	if username == "" {
		username = "admin"
	}
	if email == "" {
		log.Fatal("SEED_ADMIN_EMAIL is required")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db, cfg.DatabaseURL, repository.Models()...); err != nil {
		log.Fatal("migrate failed:", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == domain.RoleAdmin {
			log.Printf("seed: %s is already an admin (id=%d)", email, existing.ID)
			return
		}
		if err := users.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
			log.Fatalf("promote %s: %v", email, err)
		}
		log.Printf("seed: promoted %s to admin (id=%d)", email, existing.ID)
		return
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Fatalf("lookup %s: %v", email, err)
	}

	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is required to create a new admin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), auth.PasswordCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	log.Printf("seed: created admin %s (id=%d)", email, admin.ID)
}
