package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/services"
	"github.com/rapidaid/rapidaid/internal/types"
	"go.uber.org/zap"
)

type CreateTeamRequest struct {
	Name         string `json:"name" binding:"required"`
	Organization string `json:"organization"`
	Contact      string `json:"contact"`
}

type AddMemberRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type AssignRescueRequest struct {
	IncidentID uint   `json:"incident_id" binding:"required"`
	TeamID     uint   `json:"team_id" binding:"required"`
	Notes      string `json:"notes"`
}

type UpdateRescueStatusRequest struct {
	Status types.RescueStatus `json:"status" binding:"required"`
	Notes  string             `json:"notes"`
}

type RescueHandler struct {
	rescue *services.RescueService
	logger *zap.Logger
}

func NewRescueHandler(rescue *services.RescueService, logger *zap.Logger) *RescueHandler {
	return &RescueHandler{rescue: rescue, logger: logger}
}

func (h *RescueHandler) CreateTeam(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body CreateTeamRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	team, err := h.rescue.CreateTeam(ctx.Request.Context(), principal, services.CreateTeamInput{
		Name:         body.Name,
		Organization: body.Organization,
		Contact:      body.Contact,
	})

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, team)
}

func (h *RescueHandler) ListTeams(ctx *gin.Context) {
	teams, err := h.rescue.ListTeams(ctx.Request.Context())

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, teams)
}

func (h *RescueHandler) AddMember(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	teamID, ok := pathID(ctx, "team_id")

	if !ok {
		return
	}

	var body AddMemberRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	member, err := h.rescue.AddMember(ctx.Request.Context(), principal, teamID, body.UserID, body.Role)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, member)
}

func (h *RescueHandler) Assign(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body AssignRescueRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	assignment, err := h.rescue.Assign(ctx.Request.Context(), principal, body.IncidentID, body.TeamID, body.Notes)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, assignment)
}

func (h *RescueHandler) ListAssignments(ctx *gin.Context) {
	incidentID, ok := queryID(ctx, "incident_id")

	if !ok {
		return
	}

	assignments, err := h.rescue.ListAssignments(ctx.Request.Context(), incidentID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, assignments)
}

func (h *RescueHandler) UpdateStatus(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	assignmentID, ok := pathID(ctx, "assignment_id")

	if !ok {
		return
	}

	var body UpdateRescueStatusRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	assignment, err := h.rescue.UpdateStatus(ctx.Request.Context(), principal, assignmentID, body.Status, body.Notes)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, assignment)
}
