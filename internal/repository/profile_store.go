package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/profile-switcher/internal/database"
	"github.com/vladimiradmaev/profile-switcher/internal/domain"
)

// ProfileRepository is the database-backed profile catalogue
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByName returns the named definition or domain.ErrNotFound
func (r *ProfileRepository) GetByName(ctx context.Context, name string) (*domain.ProfileDefinition, error) {
	var row database.ProfileDefinition
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return fromDefinitionRow(&row)
}

// Names lists catalogue entries in alphabetical order
func (r *ProfileRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Model(&database.ProfileDefinition{}).
		Order("name ASC").
		Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return names, nil
}

// Save creates the definition or replaces the stored one with the same name
func (r *ProfileRepository) Save(ctx context.Context, def *domain.ProfileDefinition) error {
	row, err := toDefinitionRow(def)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.ProfileDefinition
		err := tx.Where("name = ?", def.Name).First(&existing).Error
		switch {
		case err == nil:
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
			row.UUID = existing.UUID
			if err := tx.Save(row).Error; err != nil {
				return fmt.Errorf("failed to update profile %q: %w", def.Name, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			row.UUID = uuid.NewString()
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to create profile %q: %w", def.Name, err)
			}
		default:
			return fmt.Errorf("failed to look up profile %q: %w", def.Name, err)
		}
		return nil
	})
}

// Import saves every definition, stopping at the first failure
func (r *ProfileRepository) Import(ctx context.Context, defs []domain.ProfileDefinition) error {
	for i := range defs {
		if err := r.Save(ctx, &defs[i]); err != nil {
			return err
		}
	}
	return nil
}
