//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sudhir200/expense-tracker-sub001/internal/auth"
	"github.com/sudhir200/expense-tracker-sub001/internal/database"
	"github.com/sudhir200/expense-tracker-sub001/internal/database/models"
	"github.com/sudhir200/expense-tracker-sub001/internal/family"
	"github.com/sudhir200/expense-tracker-sub001/pkg/config"
	"github.com/sudhir200/expense-tracker-sub001/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create superuser account
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	familyService := family.NewService(db, logger)
	authService := auth.NewService(db, jwtService, familyService)

	email := os.Getenv("SUPERUSER_EMAIL")
	password := os.Getenv("SUPERUSER_PASSWORD")
	name := os.Getenv("SUPERUSER_NAME")

	if email == "" {
		email = "super@example.com"
	}
	if password == "" {
		password = "super123!"
	}
	if name == "" {
		name = "Superuser"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
	})

	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			fmt.Printf("Superuser already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create superuser: %v", err)
	}

	// Registration always yields the base role; promote explicitly.
	if err := db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).
		Update("global_role", models.RoleSuperuser).Error; err != nil {
		log.Fatalf("failed to promote superuser: %v", err)
	}

	fmt.Printf("Superuser created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Token: %s\n", resp.Token)
}
