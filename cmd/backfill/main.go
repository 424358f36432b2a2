package main

import (
	"context"
	"log"
	"time"

	"memberhub/internal/cache"
	"memberhub/internal/config"
	"memberhub/internal/db"
	"memberhub/internal/model"
	"memberhub/internal/repository"
	"memberhub/internal/service"
)

// Backfill assigns current-format membership numbers to users whose stored
// number is missing or carries the legacy prefix, then sweeps dead reset
// tokens. Safe to re-run: a user with a current-format number is never
// touched, and expiry is enforced lazily anyway.
func main() {
	log.Println("Starting membership-number backfill...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.PasswordResetToken{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	userRepo := repository.NewUserRepository(gormDB)
	members := service.NewMemberService(userRepo, cacheClient)
	ctx := context.Background()

	updated, skipped, err := members.BackfillMembershipNumbers(ctx)
	if err != nil {
		log.Fatalf("Backfill failed: %v", err)
	}

	tokenRepo := repository.NewResetTokenRepository(gormDB)
	swept, err := tokenRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Fatalf("Token sweep failed: %v", err)
	}

	log.Printf("Backfill completed successfully!")
	log.Printf("  - Membership numbers assigned: %d", updated)
	log.Printf("  - Skipped (profile incomplete): %d", skipped)
	log.Printf("  - Dead reset tokens removed: %d", swept)
}
