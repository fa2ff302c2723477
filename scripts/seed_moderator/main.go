// Command seed_moderator creates or updates a moderator account so that a
// fresh deployment has someone who can log in and work the approval queue.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/studystack/studystack-api/pkg/config"
	"github.com/studystack/studystack-api/pkg/database"
)

func main() {
	email := flag.String("email", "", "moderator email (required)")
	password := flag.String("password", "", "moderator password (required)")
	fullName := flag.String("name", "Moderator", "display name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	const query = `
		INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'moderator', TRUE, $5, $5)
		ON CONFLICT (email) DO UPDATE
		SET password_hash = EXCLUDED.password_hash,
		    full_name = EXCLUDED.full_name,
		    active = TRUE,
		    updated_at = EXCLUDED.updated_at`
	if _, err := db.ExecContext(ctx, query, uuid.NewString(), *email, string(hash), *fullName, now); err != nil {
		log.Fatalf("failed to upsert moderator: %v", err)
	}

	log.Printf("moderator %s is ready", *email)
}
