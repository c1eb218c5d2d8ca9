package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"invoice-backend/internal/auth"
	"invoice-backend/internal/config"
	"invoice-backend/internal/db"
	"invoice-backend/internal/logging"
	"invoice-backend/internal/repositories"
	"invoice-backend/internal/services"
	"invoice-backend/internal/store"
)

var collections = []string{"invoices", "clients", "users"}

func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Invoice Store")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL DATA!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Delete all invoices")
	fmt.Println("  - Delete all clients")
	fmt.Println("  - Delete all users")
	fmt.Println("  - Reset all ID sequences")
	fmt.Println("  - Recreate the configured admin user")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	confirm, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if strings.TrimSpace(confirm) != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	ctx := context.Background()
	driver, err := db.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Unable to open store: %v\n", err)
	}
	st := store.New(driver, store.WithLogger(zap.NewNop()))
	defer st.Close()

	fmt.Println()
	fmt.Printf("Resetting %s store...\n", cfg.Storage.Driver)

	for _, name := range collections {
		if err := driver.Write(ctx, name, []byte("[]")); err != nil {
			log.Fatalf("Failed to clear %s: %v\n", name, err)
		}
		if err := driver.Write(ctx, name+".meta", []byte(`{"last_id":0}`)); err != nil {
			log.Fatalf("Failed to reset sequence for %s: %v\n", name, err)
		}
		fmt.Printf("  - Cleared %s\n", name)
	}

	users := repositories.NewUserRepository(st)
	authService, err := services.NewAuthService(users, auth.NewJWTManager(cfg.JWT), cfg.Admin, logging.NopEvents())
	if err != nil {
		log.Fatalf("Failed to build auth service: %v\n", err)
	}
	if _, _, err := authService.EnsureAdmin(ctx); err != nil {
		log.Fatalf("Failed to create admin user: %v\n", err)
	}
	fmt.Println("  - Created admin user")

	fmt.Println()
	fmt.Println("Store reset successful!")
	fmt.Println()
	fmt.Println("Admin credentials:")
	fmt.Printf("  Email:    %s\n", cfg.Admin.Email)
	fmt.Println("  Password: (admin.password / ADMIN_PASSWORD)")
}
