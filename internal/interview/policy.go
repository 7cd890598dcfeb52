package interview

import "github.com/mockmate/mockmate/internal/models"

// FreeFollowUpLimit is the total follow-up budget of a free-plan interview.
const FreeFollowUpLimit = 2

// premiumFollowUpLimit is a sentinel standing in for "unbounded".
const premiumFollowUpLimit = 1 << 20

// Decision is the policy engine's verdict for the next question. It is
// advisory: the oracle is instructed to comply, not mechanically constrained.
type Decision struct {
	FollowUpAllowed bool
	FollowUpsUsed   int
	FollowUpsLimit  int
}

// Decide resolves whether the next AI question may be a follow-up given the
// plan captured at interview creation and the follow-ups already used.
// Pass limit <= 0 to use the plan default.
func Decide(plan models.Plan, used, limit int) Decision {
	if limit <= 0 {
		limit = FreeFollowUpLimit
	}
	if plan == models.PlanPremium {
		limit = premiumFollowUpLimit
	}
	return Decision{
		FollowUpAllowed: plan == models.PlanPremium || used < limit,
		FollowUpsUsed:   used,
		FollowUpsLimit:  limit,
	}
}
