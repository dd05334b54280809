// Package seed loads reference data and demo accounts into a fresh database.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

type tagRecord struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// DemoUser describes an account created by CreateDemoUsers
type DemoUser struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
}

var DemoUsers = []DemoUser{
	{Email: "ivan.petrov@example.com", Username: "ivan", FirstName: "Иван", LastName: "Петров"},
	{Email: "maria.smirnova@example.com", Username: "maria", FirstName: "Мария", LastName: "Смирнова"},
	{Email: "test.cook@example.com", Username: "testcook", FirstName: "Test", LastName: "Cook"},
}

// ImportTags reads a JSON array of {name, slug} objects. Tags whose slug
// already exists are skipped. Returns the number of tags inserted.
func ImportTags(ctx context.Context, db *gorm.DB, r io.Reader, logger *zap.Logger) (int, error) {
	var records []tagRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("failed to decode tags: %w", err)
	}

	tags := make([]models.Tag, 0, len(records))
	for i, rec := range records {
		if rec.Name == "" || rec.Slug == "" {
			return 0, fmt.Errorf("tag #%d: name and slug are required", i+1)
		}
		tags = append(tags, models.Tag{Name: rec.Name, Slug: rec.Slug})
	}
	if len(tags) == 0 {
		return 0, nil
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&tags)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert tags: %w", result.Error)
	}

	logger.Info("Imported tags", zap.Int64("inserted", result.RowsAffected), zap.Int("read", len(records)))
	return int(result.RowsAffected), nil
}

// ImportIngredients reads a JSON array of {name, measurement_unit} objects.
// A (name, unit) pair that is already present is left alone.
func ImportIngredients(ctx context.Context, db *gorm.DB, r io.Reader, logger *zap.Logger) (int, error) {
	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, fmt.Errorf("failed to decode ingredients: %w", err)
	}

	inserted := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, rec := range records {
			if rec.Name == "" || rec.MeasurementUnit == "" {
				return fmt.Errorf("ingredient #%d: name and measurement_unit are required", i+1)
			}

			var ingredient models.Ingredient
			result := tx.Where(models.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit}).
				FirstOrCreate(&ingredient)
			if result.Error != nil {
				return result.Error
			}
			inserted += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", err)
	}

	logger.Info("Imported ingredients", zap.Int("inserted", inserted), zap.Int("read", len(records)))
	return inserted, nil
}

// CreateDemoUsers creates the DemoUsers accounts with the given password.
// Accounts whose email or username is taken are skipped.
func CreateDemoUsers(ctx context.Context, db *gorm.DB, password string, logger *zap.Logger) (int, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	created := 0
	for _, demo := range DemoUsers {
		user := models.User{
			Email:        demo.Email,
			Username:     demo.Username,
			FirstName:    demo.FirstName,
			LastName:     demo.LastName,
			PasswordHash: string(hashedPassword),
		}
		result := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
		if result.Error != nil {
			return created, fmt.Errorf("failed to create user %s: %w", demo.Username, result.Error)
		}
		if result.RowsAffected == 0 {
			logger.Debug("Demo user already exists", zap.String("username", demo.Username))
			continue
		}
		created++
		logger.Info("Created demo user", zap.String("username", demo.Username), zap.String("email", demo.Email))
	}
	return created, nil
}
