package gateway

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository persists profiles keyed by user id.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(conn *gorm.DB) (*ProfileRepository, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	return &ProfileRepository{db: conn}, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "profile id required")
	}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "profile already exists")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
	}
	return nil
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return &profile, nil
}

// Update writes exactly the given columns and returns the stored row.
func (r *ProfileRepository) Update(ctx context.Context, userID uuid.UUID, columns map[string]any) (*models.Profile, error) {
	if len(columns) > 0 {
		res := r.db.WithContext(ctx).
			Model(&models.Profile{}).
			Where("id = ?", userID).
			Updates(columns)
		if res.Error != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update profile")
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
	}
	return r.FindByUserID(ctx, userID)
}
