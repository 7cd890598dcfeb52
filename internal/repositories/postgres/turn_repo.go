package postgres

import (
	"context"
	"errors"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/utils"
	"gorm.io/gorm"
)

type TurnRepo interface {
	Insert(ctx context.Context, turn *models.Turn) error
	// ListByInterview returns turns in append (chronological) order.
	ListByInterview(ctx context.Context, interviewID string) ([]models.Turn, error)
	// LatestN returns the most recent n turns, still in chronological order.
	LatestN(ctx context.Context, interviewID string, n int) ([]models.Turn, error)
	GetByID(ctx context.Context, id string) (*models.Turn, error)
}

type turnRepo struct {
	db *gorm.DB
}

func NewTurnRepo(db *gorm.DB) TurnRepo {
	return &turnRepo{db: db}
}

func (r *turnRepo) Insert(ctx context.Context, turn *models.Turn) error {
	return r.db.WithContext(ctx).Create(turn).Error
}

func (r *turnRepo) ListByInterview(ctx context.Context, interviewID string) ([]models.Turn, error) {
	var rows []models.Turn
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("timestamp ASC").
		Find(&rows).Error
	return rows, err
}

func (r *turnRepo) LatestN(ctx context.Context, interviewID string, n int) ([]models.Turn, error) {
	if n <= 0 {
		n = 10
	}
	var rows []models.Turn
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("timestamp DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// flip back to chronological
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *turnRepo) GetByID(ctx context.Context, id string) (*models.Turn, error) {
	var row models.Turn
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}
