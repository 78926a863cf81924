// Command seed_admin creates or promotes the initial administrator account.
// New installations have no admin, so this runs once against the database
// before the API is opened to users.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduvault/eduvault-api/pkg/config"
	"github.com/eduvault/eduvault-api/pkg/database"
)

func main() {
	var (
		email    string
		password string
		fullName string
	)

	flag.StringVar(&email, "email", "", "admin email address")
	flag.StringVar(&password, "password", "", "admin password (min 8 characters)")
	flag.StringVar(&fullName, "name", "Administrator", "admin display name")
	flag.Parse()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		log.Fatal("a valid -email is required")
	}
	if len(password) < 8 {
		log.Fatal("-password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var existingID string
	err = db.Get(&existingID, "SELECT id FROM users WHERE email = $1", email)
	switch {
	case err == nil:
		res, err := db.Exec(
			"UPDATE users SET role = 'ADMIN', access = TRUE, password_hash = $1, updated_at = $2 WHERE id = $3",
			string(hash), time.Now().UTC(), existingID,
		)
		if err != nil {
			log.Fatalf("failed to promote existing user: %v", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			log.Fatal("existing user disappeared during promotion")
		}
		fmt.Printf("promoted existing user %s (%s) to admin\n", email, existingID)
	case errors.Is(err, sql.ErrNoRows):
		id := uuid.NewString()
		now := time.Now().UTC()
		_, err = db.Exec(
			`INSERT INTO users (id, email, password_hash, full_name, role, access, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, 'ADMIN', TRUE, $5, $5)`,
			id, email, string(hash), fullName, now,
		)
		if err != nil {
			log.Fatalf("failed to create admin user: %v", err)
		}
		fmt.Printf("created admin user %s (%s)\n", email, id)
	default:
		log.Fatalf("failed to look up user: %v", err)
	}
}
