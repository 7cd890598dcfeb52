package interview

import (
	"fmt"
	"strings"

	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/utils"
)

// TranscriptWindow bounds how many recent turns are rendered into the prompt.
const TranscriptWindow = 10

// TurnText is the transcript slice the composer needs: role plus text,
// chronological.
type TurnText struct {
	Role models.TurnRole
	Text string
}

// PromptParams carries everything Compose needs to build the next-question
// instruction for the oracle.
type PromptParams struct {
	JobTitle       string
	JobDescription string
	AvatarType     string // easy|medium|hard
	Language       string // en|fr|es|ar
	Plan           models.Plan
	Turns          []TurnText
	Decision       Decision
}

func languageName(lang string) string {
	switch lang {
	case "ar":
		return "Arabic"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	default:
		return "English"
	}
}

func difficultyLabel(avatarType string) string {
	switch avatarType {
	case "easy":
		return "Junior / friendly"
	case "medium":
		return "Mid-level / professional"
	default:
		return "Senior / challenging"
	}
}

// Opener returns the canonical first question for a language. Turn 0 never
// goes through the oracle.
func Opener(language string) string {
	switch language {
	case "ar":
		return "أخبرني عن نفسك."
	case "fr":
		return "Parlez-moi de vous."
	case "es":
		return "Háblame de ti."
	default:
		return "Tell me about yourself."
	}
}

func validAvatarType(v string) bool {
	return v == "easy" || v == "medium" || v == "hard"
}

func validLanguage(v string) bool {
	return v == "en" || v == "fr" || v == "es" || v == "ar"
}

// Compose builds the single instruction string sent to the oracle. Missing
// or malformed job context fails fast with CodeInvalidArgument so no partial
// prompt ever reaches the oracle.
func Compose(p PromptParams) (string, error) {
	const op = "interview.Compose"

	if strings.TrimSpace(p.JobTitle) == "" || strings.TrimSpace(p.JobDescription) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "job_title and job_description are required", nil)
	}
	if !validAvatarType(p.AvatarType) {
		return "", utils.E(utils.CodeInvalidArgument, op, "avatar_type must be easy|medium|hard", nil)
	}
	if !validLanguage(p.Language) {
		return "", utils.E(utils.CodeInvalidArgument, op, "language must be en|fr|es|ar", nil)
	}

	langName := languageName(p.Language)

	turns := p.Turns
	if len(turns) > TranscriptWindow {
		turns = turns[len(turns)-TranscriptWindow:]
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		speaker := "Candidate"
		if t.Role == models.RoleAI {
			speaker = "Interviewer"
		}
		lines = append(lines, speaker+": "+t.Text)
	}

	var followUpRule string
	if p.Plan == models.PlanPremium {
		followUpRule = "Premium plan: You may ask follow-ups as needed."
	} else {
		followUpRule = fmt.Sprintf(
			"Free plan rule: You may ask a follow-up ONLY if followUpsUsed < followUpsLimit (currently %d/%d). If followUpsUsed >= followUpsLimit, you MUST ask a NEW main interview question (not a follow-up).",
			p.Decision.FollowUpsUsed, p.Decision.FollowUpsLimit)
	}

	prompt := fmt.Sprintf(`You are a realistic job interviewer conducting a structured interview.

Role: %s
Difficulty: %s
Language: %s

Job Description:
%s

Recent transcript:
%s

%s

Task:
Ask ONE single next interview question.
- Output MUST be only the question text (no quotes, no bullets, no explanations).
- Must be in %s.
- Must feel natural and realistic.
- If last answer is weak/short and follow-ups are allowed, ask one probing follow-up.
- If follow-ups are NOT allowed, move to a new topic/question relevant to the job.`,
		p.JobTitle,
		difficultyLabel(p.AvatarType),
		langName,
		p.JobDescription,
		strings.Join(lines, "\n"),
		followUpRule,
		langName,
	)

	return strings.TrimSpace(prompt), nil
}
