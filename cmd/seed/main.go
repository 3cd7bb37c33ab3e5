package main

import (
	"context"
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"userdir/internal/config"
	"userdir/internal/db"
	"userdir/internal/model"
	"userdir/internal/repository"
	"userdir/internal/validation"
)

// Seeds the bootstrap administrator. Safe to run repeatedly: an existing
// account with the seed email is left untouched.
func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()
	if cfg.SeedAdminPassword == "" {
		log.Fatal("SEED_ADMIN_PASSWORD must be set")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.Account{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	repo := repository.NewAccountRepository(gormDB)
	email := validation.SanitizeEmail(cfg.SeedAdminEmail)

	if _, err := repo.FindByEmail(ctx, email); err == nil {
		log.Printf("Administrator %s already exists, nothing to do", email)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to check for existing administrator: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := &model.Account{
		FirstName:    "Directory",
		LastName:     "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdministrator,
	}
	if err := repo.CreateUnique(ctx, admin); err != nil {
		log.Fatalf("Failed to create administrator: %v", err)
	}
	log.Printf("Created administrator %s (id %d)", admin.Email, admin.ID)
}
