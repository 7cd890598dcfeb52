package services

import (
	"context"
	"errors"

	"github.com/mockmate/mockmate/internal/models"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/utils"
)

type ReportService interface {
	Save(ctx context.Context, r *models.Report) error
	GetByInterview(ctx context.Context, interviewID string) (*models.Report, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error)
}

type reportService struct {
	reports pgrepo.ReportRepo
}

func NewReportService(reports pgrepo.ReportRepo) ReportService {
	return &reportService{reports: reports}
}

func (s *reportService) Save(ctx context.Context, r *models.Report) error {
	const op = "ReportService.Save"

	if r == nil || r.InterviewID == "" || r.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "interview_id and user_id are required", nil)
	}
	if err := s.reports.Insert(ctx, r); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to insert report", err)
	}
	return nil
}

func (s *reportService) GetByInterview(ctx context.Context, interviewID string) (*models.Report, error) {
	const op = "ReportService.GetByInterview"

	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	out, err := s.reports.GetByInterview(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "report not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get report", err)
	}
	return out, nil
}

func (s *reportService) ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	const op = "ReportService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.reports.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list reports", err)
	}
	return out, nil
}
