package seed

import (
	"guardpost/config"
	"guardpost/internal/logger"

	. "guardpost/internal/models"

	"gorm.io/gorm"
)

func stringPtr(s string) *string {
	return &s
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []User{
		{
			FirstName: "Dispatch",
			LastName:  "Operator",
			Email:     stringPtr("operator@example.com"),
			Phone:     "+15550100",
			Role:      RoleOperator,
			IsActive:  true,
		}, {
			FirstName: "Marcus",
			LastName:  "Webb",
			Email:     stringPtr("marcus.webb@example.com"),
			Phone:     "+15550101",
			Role:      RoleGuard,
			IsActive:  true,
		}, {
			FirstName: "Elena",
			LastName:  "Ruiz",
			Email:     stringPtr("elena.ruiz@example.com"),
			Phone:     "+15550102",
			Role:      RoleGuard,
			IsActive:  true,
		}, {
			FirstName: "Jordan",
			LastName:  "Pike",
			Email:     stringPtr("jordan.pike@example.com"),
			Phone:     "+15550103",
			Role:      RoleGuard,
			IsActive:  false,
		}, {
			FirstName: "Harbor",
			LastName:  "Logistics",
			Email:     stringPtr("ops@harborlogistics.example.com"),
			Phone:     "+15550104",
			Role:      RoleClient,
			IsActive:  true,
		},
	}

	for _, user := range users {
		var existingUser User
		if err := db.First(&existingUser, "email = ?", user.Email).Error; err == nil {
			log.Info("User already exists", "email", user.Email)
			continue
		}
		log.Info("Seeding user", "email", user.Email, "role", user.Role)
		if err := db.Create(&user).Error; err != nil {
			log.Er("failed to create user", err, "email", user.Email)
		}
	}

	return nil
}
