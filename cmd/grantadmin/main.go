package main

import (
	"fmt"
	"log"
	"os"

	"github.com/voxnote/voxnote/app/repository"
	"github.com/voxnote/voxnote/internal/pkg/database"
	"github.com/voxnote/voxnote/internal/pkg/env"
)

// grantadmin promotes an existing account to the admin role:
//
//	go run cmd/grantadmin/main.go user@example.com
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/grantadmin/main.go <email>")
		os.Exit(1)
	}
	email := os.Args[1]

	env.SetupEnvFile()
	database.SetupDatabase()

	repo := repository.NewRepositories(database.GetDB()).User

	user, err := repo.GetByEmail(email)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if user == nil {
		log.Fatalf("No user found for %s", email)
	}

	if err := repo.GrantRole(user.ID, "admin"); err != nil {
		log.Fatalf("Failed to grant admin role: %v", err)
	}

	log.Printf("Granted admin role to %s (id=%d)", user.Email, user.ID)
}
