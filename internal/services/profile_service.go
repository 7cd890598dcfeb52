package services

import (
	"context"
	"errors"
	"time"

	"github.com/mockmate/mockmate/internal/models"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/utils"
)

type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	// Tier is the read-only subscription lookup; users without a profile
	// row are treated as free.
	Tier(ctx context.Context, userID string) (models.Plan, error)
	// SpendInterview burns one free-interview credit; premium users are
	// never charged.
	SpendInterview(ctx context.Context, userID string) error
}

type profileService struct {
	profiles pgrepo.ProfileRepo
}

func NewProfileService(profiles pgrepo.ProfileRepo) ProfileService {
	return &profileService{profiles: profiles}
}

func (s *profileService) GetMe(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "ProfileService.GetMe"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}
	return p, nil
}

func (s *profileService) Upsert(ctx context.Context, p *models.Profile) error {
	const op = "ProfileService.Upsert"

	if p == nil || p.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "profile.user_id is required", nil)
	}
	if p.Subscription == "" {
		p.Subscription = models.PlanFree
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to upsert profile", err)
	}
	return nil
}

func (s *profileService) Tier(ctx context.Context, userID string) (models.Plan, error) {
	const op = "ProfileService.Tier"

	if userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return models.PlanFree, nil
	}
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to resolve tier", err)
	}
	if p.Subscription == models.PlanPremium {
		return models.PlanPremium, nil
	}
	return models.PlanFree, nil
}

func (s *profileService) SpendInterview(ctx context.Context, userID string) error {
	const op = "ProfileService.SpendInterview"

	if userID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	tier, err := s.Tier(ctx, userID)
	if err != nil {
		return err
	}
	if tier == models.PlanPremium {
		return nil
	}
	if err := s.profiles.DecrementInterviewsRemaining(ctx, userID); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			// already at zero; nothing left to spend
			return nil
		}
		return utils.E(utils.CodeInternal, op, "failed to decrement interview credit", err)
	}
	return nil
}
