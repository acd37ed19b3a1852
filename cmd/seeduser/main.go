// Command seeduser inserts an admin user with a bcrypt-hashed password.
//
// Usage:
//
//	DATABASE_URL=postgres://... seeduser <username> <password>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courierpost/newsletter-service/internal/repository"
	"github.com/courierpost/newsletter-service/internal/service"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: seeduser <username> <password>")
		os.Exit(2)
	}
	username, password := os.Args[1], os.Args[2]

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	hash, err := service.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	userID := uuid.New()
	users := repository.NewPgUserRepository(pool)
	if err := users.CreateUser(ctx, userID, username, hash); err != nil {
		fmt.Fprintf(os.Stderr, "create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("created user %s (%s)\n", username, userID)
}
