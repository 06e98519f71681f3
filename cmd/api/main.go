package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/glowora/glowora-api/internal/database"
	"github.com/glowora/glowora-api/internal/email"
	"github.com/glowora/glowora-api/internal/handlers"
	"github.com/glowora/glowora-api/internal/routes"
	"github.com/joho/godotenv"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Database Connection ---
	db, err := database.OpenDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 2. --- Outbound Email ---
	// Without SMTP_HOST the mailer logs messages instead of sending them,
	// which is what we want in development.
	mailer := email.NewMailerFromEnv()

	// --- Application Setup ---
	app := &handlers.Handlers{
		DB:     db,
		Mailer: mailer,
	}

	// 3. --- Background Workers ---
	// Guest carts never expire with an account, so a sweeper removes rows
	// untouched for GUEST_CART_TTL_DAYS (default 30).
	go func() {
		ttl := 30 * 24 * time.Hour
		if raw := os.Getenv("GUEST_CART_TTL_DAYS"); raw != "" {
			if days, err := strconv.Atoi(raw); err == nil && days > 0 {
				ttl = time.Duration(days) * 24 * time.Hour
			}
		}

		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Println("Background worker started: sweeping stale guest carts")

		for range ticker.C {
			app.ProcessStaleGuestCarts(ttl)
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting Glowora API server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
