package postgres

import (
	"context"
	"errors"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/utils"
	"gorm.io/gorm"
)

type ReportRepo interface {
	Insert(ctx context.Context, report *models.Report) error
	GetByInterview(ctx context.Context, interviewID string) (*models.Report, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepo {
	return &reportRepo{db: db}
}

func (r *reportRepo) Insert(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepo) GetByInterview(ctx context.Context, interviewID string) (*models.Report, error) {
	var row models.Report
	err := r.db.WithContext(ctx).Where("interview_id = ?", interviewID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *reportRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Report
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
