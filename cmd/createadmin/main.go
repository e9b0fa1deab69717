// createadmin provisions the bootstrap admin account, or promotes an existing
// user to admin. This is the only role-transition path that does not require
// an acting admin.
package main

import (
	"context"
	"flag"
	"log"

	"taskvault/backend/internal/config"
	"taskvault/backend/internal/db"
	"taskvault/backend/internal/security"
	userrepo "taskvault/backend/internal/user/repository"
	userservice "taskvault/backend/internal/user/service"
)

func main() {
	email := flag.String("email", "", "Admin email (required)")
	username := flag.String("username", "admin", "Admin username")
	password := flag.String("password", "", "Admin password (required for a new account)")
	flag.Parse()

	if *email == "" {
		log.Fatal("createadmin: -email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	svc := userservice.New(userrepo.NewPostgresRepository(database), security.NewHasher(cfg.BcryptCost))
	u, err := svc.CreateAdmin(context.Background(), *email, *username, *password)
	if err != nil {
		log.Fatalf("createadmin: %v", err)
	}
	log.Printf("admin ready: id=%d email=%s username=%s", u.ID, u.Email, u.Username)
}
