package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mockmate/mockmate/internal/models"
	"github.com/mockmate/mockmate/internal/services"
	"github.com/mockmate/mockmate/internal/utils"
)

type ProfileHandler struct {
	svc services.ProfileService
}

func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.Update", "invalid request body", err))
		return
	}

	existing, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil && !utils.IsCode(err, utils.CodeNotFound) {
		writeError(c, err)
		return
	}

	p := &models.Profile{UserID: userID, Subscription: models.PlanFree}
	if existing != nil {
		p = existing
	}
	p.FullName = req.FullName

	if err := h.svc.Upsert(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
