package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/playmatatu/pocketrush/internal/admin"
	"github.com/playmatatu/pocketrush/internal/config"
	"github.com/playmatatu/pocketrush/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required to seed an admin account")
	}

	// Initialize database
	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Seed admin account
	phone := os.Getenv("ADMIN_PHONE")
	if phone == "" {
		phone = "256700000000" // Default phone
		log.Printf("Using default admin phone: %s", phone)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "change-me-in-production" // Default token
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN env var in production!")
	}

	displayName := os.Getenv("ADMIN_NAME")
	if displayName == "" {
		displayName = "Admin"
	}
	roles := []string{admin.RoleSuper}
	if os.Getenv("ADMIN_ROLE") == admin.RoleConfig {
		roles = []string{admin.RoleConfig}
	}
	allowedIPs := []string{} // Empty = allow from any IP

	err = admin.CreateAdminAccount(db, phone, displayName, adminToken, roles, allowedIPs)
	if err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("Admin account created/updated successfully")
	log.Printf("  Phone: %s", phone)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  Roles: %v", roles)
	log.Println("Log in with POST /api/v1/admin/login using this phone and ADMIN_TOKEN")
}
