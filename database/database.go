// File: /database/database.go
package database

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tripweaver-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.Step{},
		&models.Activity{},
		&models.Accommodation{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// SeedData populates the database with a demo user and trip for development.
func SeedData(db *gorm.DB) error {
	var userCount int64
	db.Model(&models.User{}).Count(&userCount)

	if userCount > 0 {
		fmt.Println("Database already has data, skipping seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := models.User{
		ID:            uuid.New().String(),
		Name:          "Demo Traveller",
		Email:         "demo@tripweaver.app",
		Password:      string(hashed),
		EmailVerified: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}

	trip := models.Trip{
		ID:       uuid.New().String(),
		UserID:   user.ID,
		Title:    "Tour of Tuscany",
		Currency: "EUR",
	}
	if err := db.Create(&trip).Error; err != nil {
		return fmt.Errorf("failed to create demo trip: %w", err)
	}

	coord := func(v float64) *float64 { return &v }

	steps := []models.Step{
		{
			ID:            uuid.New().String(),
			TripID:        trip.ID,
			Order:         1,
			Title:         "Departure",
			Location:      "Paris",
			Latitude:      coord(48.8566),
			Longitude:     coord(2.3522),
			StartDate:     models.DatePtr(2025, 6, 1),
			Nights:        models.IntPtr(0),
			TransportMode: models.TransportTrain,
		},
		{
			ID:            uuid.New().String(),
			TripID:        trip.ID,
			Order:         2,
			Title:         "Florence",
			Location:      "Florence",
			Latitude:      coord(43.7696),
			Longitude:     coord(11.2558),
			Nights:        models.IntPtr(3),
			TransportMode: models.TransportCar,
		},
		{
			ID:            uuid.New().String(),
			TripID:        trip.ID,
			Order:         3,
			Title:         "Siena",
			Location:      "Siena",
			Latitude:      coord(43.3188),
			Longitude:     coord(11.3308),
			Nights:        models.IntPtr(2),
			IsDestination: true,
			TransportMode: models.TransportCar,
		},
	}

	for _, step := range steps {
		if err := db.Create(&step).Error; err != nil {
			return fmt.Errorf("failed to create demo step %s: %w", step.Location, err)
		}
	}

	fmt.Println("Database seeded with demo trip")
	return nil
}
