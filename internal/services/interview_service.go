package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mockmate/mockmate/internal/cache"
	"github.com/mockmate/mockmate/internal/interview"
	"github.com/mockmate/mockmate/internal/models"
	mongorepo "github.com/mockmate/mockmate/internal/repositories/mongo"
	"github.com/mockmate/mockmate/internal/utils"

	"github.com/google/uuid"
)

type CreateInterviewInput struct {
	JobTitle       string
	JobDescription string
	AvatarType     string // easy|medium|hard
	Language       string // en|fr|es|ar
	CVURL          string
}

type InterviewService interface {
	Create(ctx context.Context, userID string, in CreateInterviewInput) (*models.Interview, error)
	Get(ctx context.Context, interviewID string) (*models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.Interview, error)
	End(ctx context.Context, interviewID string, status models.InterviewStatus, durationSeconds int64) error
	SetScore(ctx context.Context, interviewID string, score int) error
}

type interviewService struct {
	interviews mongorepo.InterviewRepository
	profiles   ProfileService
	cache      cache.Cache
	cacheTTL   time.Duration
}

func NewInterviewService(interviews mongorepo.InterviewRepository, profiles ProfileService, c cache.Cache) InterviewService {
	return &interviewService{
		interviews: interviews,
		profiles:   profiles,
		cache:      c,
		cacheTTL:   5 * time.Minute,
	}
}

// Create validates the setup form, resolves the plan server-side from the
// profile, and persists the interview document. The opening question is the
// driver's job, not Create's.
func (s *interviewService) Create(ctx context.Context, userID string, in CreateInterviewInput) (*models.Interview, error) {
	const op = "InterviewService.Create"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	// same validation the prompt composer applies, so a bad setup form is
	// rejected before anything is persisted
	if _, err := interview.Compose(interview.PromptParams{
		JobTitle:       in.JobTitle,
		JobDescription: in.JobDescription,
		AvatarType:     in.AvatarType,
		Language:       in.Language,
	}); err != nil {
		return nil, err
	}

	plan, err := s.profiles.Tier(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve plan", err)
	}

	caps := interview.Capabilities(plan)
	if !caps.AllowMultipleLanguages && in.Language != "en" {
		return nil, utils.E(utils.CodeForbidden, op, "free plan interviews are English-only", nil)
	}
	if plan == models.PlanFree {
		p, err := s.profiles.GetMe(ctx, userID)
		if err != nil {
			return nil, err
		}
		if p.InterviewsRemaining <= 0 {
			return nil, utils.E(utils.CodeForbidden, op, "no free interviews remaining", nil)
		}
	}

	now := time.Now().UTC()
	iv := &models.Interview{
		InterviewID:    uuid.NewString(),
		UserID:         userID,
		JobTitle:       strings.TrimSpace(in.JobTitle),
		JobDescription: strings.TrimSpace(in.JobDescription),
		AvatarType:     in.AvatarType,
		Language:       in.Language,
		Plan:           plan,
		CVURL:          in.CVURL,
		Status:         models.StatusInProgress,
		CreatedAt:      now,
	}

	if err := s.interviews.Create(ctx, iv); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}
	_ = s.cache.SetJSON(ctx, cache.InterviewKey(iv.InterviewID), iv, s.cacheTTL)
	return iv, nil
}

func (s *interviewService) Get(ctx context.Context, interviewID string) (*models.Interview, error) {
	const op = "InterviewService.Get"

	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}

	var cached models.Interview
	if hit, _ := s.cache.GetJSON(ctx, cache.InterviewKey(interviewID), &cached); hit {
		return &cached, nil
	}

	out, err := s.interviews.GetByInterviewID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	_ = s.cache.SetJSON(ctx, cache.InterviewKey(interviewID), out, s.cacheTTL)
	return out, nil
}

func (s *interviewService) ListByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	const op = "InterviewService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.interviews.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *interviewService) End(ctx context.Context, interviewID string, status models.InterviewStatus, durationSeconds int64) error {
	const op = "InterviewService.End"

	if interviewID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	if status != models.StatusCompleted && status != models.StatusAborted {
		return utils.E(utils.CodeInvalidArgument, op, "status must be terminal", nil)
	}
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	if err := s.interviews.End(ctx, interviewID, status, time.Now().UTC(), durationSeconds); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to end interview", err)
	}
	_ = s.cache.Del(ctx, cache.InterviewKey(interviewID))
	return nil
}

func (s *interviewService) SetScore(ctx context.Context, interviewID string, score int) error {
	const op = "InterviewService.SetScore"

	if interviewID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	if err := s.interviews.SetScore(ctx, interviewID, score); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to set score", err)
	}
	_ = s.cache.Del(ctx, cache.InterviewKey(interviewID))
	return nil
}
