package services

import (
	"context"
	"time"

	"github.com/mockmate/mockmate/internal/models"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/utils"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type TurnService interface {
	Append(ctx context.Context, userID, interviewID string, role models.TurnRole, text string, embedding []float32, metadataJSON []byte) (*models.Turn, error)
	ListByInterview(ctx context.Context, interviewID string) ([]models.Turn, error)
	Recent(ctx context.Context, interviewID string, n int) ([]models.Turn, error)
}

type turnService struct {
	turns pgrepo.TurnRepo
}

func NewTurnService(turns pgrepo.TurnRepo) TurnService {
	return &turnService{turns: turns}
}

// Append writes one immutable turn. The row only exists once the store
// confirms the insert; callers must not advance session state on error.
func (s *turnService) Append(ctx context.Context, userID, interviewID string, role models.TurnRole, text string, embedding []float32, metadataJSON []byte) (*models.Turn, error) {
	const op = "TurnService.Append"

	if userID == "" || interviewID == "" || text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id, interview_id, and text are required", nil)
	}
	if role != models.RoleAI && role != models.RoleUser {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role must be ai or user", nil)
	}

	row := &models.Turn{
		ID:          uuid.NewString(),
		UserID:      userID,
		InterviewID: interviewID,
		Role:        role,
		Text:        text,
		Timestamp:   time.Now().UTC(),
		Metadata:    datatypes.JSON(metadataJSON),
	}

	if len(embedding) > 0 {
		row.Embedding = pgvector.NewVector(embedding)
	}

	if err := s.turns.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert turn", err)
	}
	return row, nil
}

func (s *turnService) ListByInterview(ctx context.Context, interviewID string) ([]models.Turn, error) {
	const op = "TurnService.ListByInterview"

	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	rows, err := s.turns.ListByInterview(ctx, interviewID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list turns", err)
	}
	return rows, nil
}

func (s *turnService) Recent(ctx context.Context, interviewID string, n int) ([]models.Turn, error) {
	const op = "TurnService.Recent"

	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	rows, err := s.turns.LatestN(ctx, interviewID, n)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to read recent turns", err)
	}
	return rows, nil
}
