package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/services"
	"github.com/rapidaid/rapidaid/internal/types"
	"go.uber.org/zap"
)

type ApplyVolunteerRequest struct {
	IncidentID uint   `json:"incident_id" binding:"required"`
	Remarks    string `json:"remarks"`
}

type DecideVolunteerRequest struct {
	Status  types.VolunteerStatus `json:"status" binding:"required"`
	Remarks string                `json:"remarks"`
}

type VolunteerHandler struct {
	volunteers *services.VolunteerService
	logger     *zap.Logger
}

func NewVolunteerHandler(volunteers *services.VolunteerService, logger *zap.Logger) *VolunteerHandler {
	return &VolunteerHandler{volunteers: volunteers, logger: logger}
}

func (h *VolunteerHandler) Apply(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body ApplyVolunteerRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	assignment, err := h.volunteers.Apply(ctx.Request.Context(), principal, body.IncidentID, body.Remarks)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, assignment)
}

func (h *VolunteerHandler) Decide(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	assignmentID, ok := pathID(ctx, "assignment_id")

	if !ok {
		return
	}

	var body DecideVolunteerRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	assignment, err := h.volunteers.Decide(ctx.Request.Context(), principal, assignmentID, body.Status, body.Remarks)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, assignment)
}

func (h *VolunteerHandler) List(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	assignments, err := h.volunteers.List(ctx.Request.Context(), principal)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, assignments)
}

func (h *VolunteerHandler) Mine(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	assignments, err := h.volunteers.ListMine(ctx.Request.Context(), principal)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, assignments)
}
