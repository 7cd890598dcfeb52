package postgres

import (
	"context"
	"errors"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepo interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	// DecrementInterviewsRemaining atomically spends one free interview.
	// Returns utils.ErrNotFound when no row matched (already at zero).
	DecrementInterviewsRemaining(ctx context.Context, userID string) error
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *profileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"full_name", "subscription", "interviews_remaining", "updated_at"}),
		}).
		Create(p).Error
}

func (r *profileRepo) DecrementInterviewsRemaining(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ? AND interviews_remaining > 0", userID).
		UpdateColumn("interviews_remaining", gorm.Expr("interviews_remaining - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
