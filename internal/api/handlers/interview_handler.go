package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/utils"
)

type InterviewHandler struct {
	svc     services.InterviewService
	turns   services.TurnService
	reports services.ReportService
	driver  *services.Driver
}

func NewInterviewHandler(svc services.InterviewService, turns services.TurnService, reports services.ReportService, driver *services.Driver) *InterviewHandler {
	return &InterviewHandler{svc: svc, turns: turns, reports: reports, driver: driver}
}

type StartInterviewRequest struct {
	JobTitle       string `json:"job_title" binding:"required"`
	JobDescription string `json:"job_description" binding:"required"`
	AvatarType     string `json:"avatar_type" binding:"required"` // easy|medium|hard
	Language       string `json:"language" binding:"required"`    // en|fr|es|ar
	CVURL          string `json:"cv_url"`
}

type StartInterviewResponse struct {
	InterviewID string `json:"interview_id"`
	Status      string `json:"status"`
	Question    string `json:"question"` // canonical opener
	CreatedAt   string `json:"created_at"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	iv, err := h.svc.Create(c.Request.Context(), userID, services.CreateInterviewInput{
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		AvatarType:     req.AvatarType,
		Language:       req.Language,
		CVURL:          req.CVURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	opener, err := h.driver.Start(c.Request.Context(), iv.InterviewID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StartInterviewResponse{
		InterviewID: iv.InterviewID,
		Status:      string(iv.Status),
		Question:    opener,
		CreatedAt:   iv.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// owned loads the interview and enforces ownership.
func (h *InterviewHandler) owned(c *gin.Context, op string) (*models.Interview, bool) {
	userID, ok := requireUserID(c)
	if !ok {
		return nil, false
	}

	iv, err := h.svc.Get(c.Request.Context(), c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if iv.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, op, "forbidden", nil))
		return nil, false
	}
	return iv, true
}

func (h *InterviewHandler) Get(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Get")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	out, err := h.svc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *InterviewHandler) Turns(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Turns")
	if !ok {
		return
	}
	turns, err := h.turns.ListByInterview(c.Request.Context(), iv.InterviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turns)
}

type SubmitAnswerRequest struct {
	Text string `json:"text"` // empty means the candidate skipped
}

func (h *InterviewHandler) Answer(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Answer")
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Answer", "invalid request body", err))
		return
	}

	if err := h.driver.SubmitAnswer(c.Request.Context(), iv.InterviewID, req.Text); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type AdvanceResponse struct {
	Question string `json:"question,omitempty"`
	Done     bool   `json:"done"`
}

func (h *InterviewHandler) Next(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Next")
	if !ok {
		return
	}

	question, done, err := h.driver.Advance(c.Request.Context(), iv.InterviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, AdvanceResponse{Question: question, Done: done})
}

type TickRequest struct {
	ElapsedDeltaSeconds int64 `json:"elapsed_delta_seconds" binding:"required"`
}

func (h *InterviewHandler) Tick(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Tick")
	if !ok {
		return
	}

	var req TickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Tick", "invalid request body", err))
		return
	}

	completed, err := h.driver.Tick(c.Request.Context(), iv.InterviewID, req.ElapsedDeltaSeconds)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": completed})
}

type CompleteRequest struct {
	DurationSeconds int64 `json:"duration_seconds"`
}

func (h *InterviewHandler) Complete(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Complete")
	if !ok {
		return
	}

	req := CompleteRequest{DurationSeconds: -1} // -1 falls back to the driver clock
	_ = c.ShouldBindJSON(&req)                  // body optional

	status, err := h.driver.Complete(c.Request.Context(), iv.InterviewID, req.DurationSeconds)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *InterviewHandler) Abort(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Abort")
	if !ok {
		return
	}

	status, err := h.driver.Abort(c.Request.Context(), iv.InterviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *InterviewHandler) Report(c *gin.Context) {
	iv, ok := h.owned(c, "InterviewHandler.Report")
	if !ok {
		return
	}

	report, err := h.reports.GetByInterview(c.Request.Context(), iv.InterviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
