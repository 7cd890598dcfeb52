package interview

import "github.com/mockmate/mockmate/internal/models"

// PlanCapabilities gates what an interview on a given plan may do.
type PlanCapabilities struct {
	MaxQuestions   int
	FollowUpsLimit int

	ShowExactScores  bool
	AllowPdfDownload bool

	AllowMultipleLanguages bool
}

var planRules = map[models.Plan]PlanCapabilities{
	models.PlanFree: {
		MaxQuestions:   5,
		FollowUpsLimit: FreeFollowUpLimit,

		ShowExactScores:  false,
		AllowPdfDownload: false,

		AllowMultipleLanguages: false,
	},
	models.PlanPremium: {
		MaxQuestions:   15,
		FollowUpsLimit: premiumFollowUpLimit,

		ShowExactScores:  true,
		AllowPdfDownload: true,

		AllowMultipleLanguages: true,
	},
}

// Capabilities resolves the rule set for a plan; anything unknown is free.
func Capabilities(plan models.Plan) PlanCapabilities {
	if plan == models.PlanPremium {
		return planRules[models.PlanPremium]
	}
	return planRules[models.PlanFree]
}

// TimeBudgetSeconds maps difficulty to the interview's wall-clock budget.
func TimeBudgetSeconds(avatarType string) int64 {
	switch avatarType {
	case "easy":
		return 300
	case "medium":
		return 600
	default:
		return 900
	}
}
