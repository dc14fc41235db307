// Command seed creates a staff account and its store for local development.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"scanpay/internal/config"
	apperrors "scanpay/internal/errors"
	"scanpay/internal/models"
	"scanpay/internal/repositories"
	"scanpay/internal/services/auth"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	staffEmail := os.Getenv("STAFF_EMAIL")
	staffPassword := os.Getenv("STAFF_PASSWORD")
	if staffEmail == "" || staffPassword == "" {
		log.Fatal("STAFF_EMAIL and STAFF_PASSWORD must be set in environment")
	}

	db, err := repositories.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repositories.Close(db)

	users := repositories.NewUserRepository(db)
	stores := repositories.NewStoreRepository(db)
	authService := auth.NewService(users, stores, cfg.JWTSecret, cfg.JWTTTL)

	user, store, err := authService.CreateStaff(context.Background(), auth.StaffSignupInput{
		SignupInput: auth.SignupInput{
			Name:     config.GetEnv("STAFF_NAME", "Store Staff"),
			Email:    staffEmail,
			Password: staffPassword,
		},
		StoreName: config.GetEnv("STORE_NAME", "ScanPay Demo Store"),
		Location:  config.GetEnv("STORE_LOCATION", "Koregaon Park"),
		City:      config.GetEnv("STORE_CITY", "Pune"),
		Latitude:  config.GetFloatEnv("STORE_LAT", 18.5362),
		Longitude: config.GetFloatEnv("STORE_LNG", 73.8939),
	})
	if errors.Is(err, apperrors.ErrEmailTaken) {
		log.Println("Staff user already exists")
		return
	}
	if err != nil {
		log.Fatalf("Failed to create staff account: %v", err)
	}

	log.Printf("✅ Staff account %s created for store %q (%s, status %s)", user.Email, store.Name, store.ID, models.StoreStatusOpen)
}
