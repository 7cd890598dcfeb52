package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mockmate/mockmate/internal/interview"
	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/providers/llm"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/utils"
)

// QuestionHandler serves the stateless next-question contract: the caller
// supplies the job context and transcript window and gets one question back.
// The session-backed room API is the hardened path; this endpoint remains
// for clients that keep the transcript themselves.
type QuestionHandler struct {
	oracle   llm.Provider
	profiles services.ProfileService
}

func NewQuestionHandler(oracle llm.Provider, profiles services.ProfileService) *QuestionHandler {
	return &QuestionHandler{oracle: oracle, profiles: profiles}
}

type wireTurn struct {
	Role string `json:"role"` // "ai" | "user"
	Text string `json:"text"`
}

type NextQuestionRequest struct {
	JobTitle       string     `json:"jobTitle" binding:"required"`
	JobDescription string     `json:"jobDescription" binding:"required"`
	AvatarType     string     `json:"avatarType" binding:"required"` // easy|medium|hard
	Language       string     `json:"language" binding:"required"`   // en|fr|es|ar
	Turns          []wireTurn `json:"turns"`
	Plan           string     `json:"plan"` // advisory; the profile wins when the caller is authenticated
}

type NextQuestionResponse struct {
	Question string `json:"question"`
}

func (h *QuestionHandler) Next(c *gin.Context) {
	const op = "QuestionHandler.Next"

	var req NextQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing required fields", err))
		return
	}

	plan := models.PlanFree
	if req.Plan == string(models.PlanPremium) {
		plan = models.PlanPremium
	}
	if userID, ok := c.Get("user_id"); ok && h.profiles != nil {
		if id, _ := userID.(string); id != "" {
			if tier, err := h.profiles.Tier(c.Request.Context(), id); err == nil {
				plan = tier
			}
		}
	}

	var aiTexts []string
	turns := make([]interview.TurnText, 0, len(req.Turns))
	for _, t := range req.Turns {
		role := models.RoleUser
		if t.Role == string(models.RoleAI) {
			role = models.RoleAI
			aiTexts = append(aiTexts, t.Text)
		}
		turns = append(turns, interview.TurnText{Role: role, Text: t.Text})
	}

	used := interview.CountFollowUps(aiTexts, nil)
	decision := interview.Decide(plan, used, interview.Capabilities(plan).FollowUpsLimit)

	// validation happens before any oracle call
	prompt, err := interview.Compose(interview.PromptParams{
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		AvatarType:     req.AvatarType,
		Language:       req.Language,
		Plan:           plan,
		Turns:          turns,
		Decision:       decision,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	question, err := h.oracle.Complete(c.Request.Context(), prompt)
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "could not get next question, please try again", err))
		return
	}

	c.JSON(http.StatusOK, NextQuestionResponse{Question: question})
}
