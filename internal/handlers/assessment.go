package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/services"
	"github.com/rapidaid/rapidaid/internal/types"
	"go.uber.org/zap"
)

type AddFamilyRequest struct {
	IncidentID       uint   `json:"incident_id" binding:"required"`
	HeadOfFamilyName string `json:"head_of_family_name" binding:"required"`
	ContactNumber    string `json:"contact_number"`
	Address          string `json:"address" binding:"required"`
	TotalMembers     int    `json:"total_members" binding:"required,min=1"`
	InjuredMembers   int    `json:"injured_members" binding:"min=0"`
	DeceasedMembers  int    `json:"deceased_members" binding:"min=0"`
}

type RecordLossRequest struct {
	FamilyID              uint              `json:"family_id" binding:"required"`
	HouseDamage           types.HouseDamage `json:"house_damage" binding:"omitempty,oneof=none partial full"`
	EstimatedPropertyLoss float64           `json:"estimated_property_loss" binding:"min=0"`
	LivestockLost         int               `json:"livestock_lost" binding:"min=0"`
	CropsLost             string            `json:"crops_lost"`
	Remarks               string            `json:"remarks"`
}

type AssessmentHandler struct {
	assessments *services.AssessmentService
	logger      *zap.Logger
}

func NewAssessmentHandler(assessments *services.AssessmentService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, logger: logger}
}

func (h *AssessmentHandler) AddFamily(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body AddFamilyRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	family, err := h.assessments.AddFamily(ctx.Request.Context(), principal, services.AddFamilyInput{
		IncidentID:       body.IncidentID,
		HeadOfFamilyName: body.HeadOfFamilyName,
		ContactNumber:    body.ContactNumber,
		Address:          body.Address,
		TotalMembers:     body.TotalMembers,
		InjuredMembers:   body.InjuredMembers,
		DeceasedMembers:  body.DeceasedMembers,
	})

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, family)
}

func (h *AssessmentHandler) ListFamilies(ctx *gin.Context) {
	incidentID, ok := queryID(ctx, "incident_id")

	if !ok {
		return
	}

	families, err := h.assessments.ListFamilies(ctx.Request.Context(), incidentID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, families)
}

func (h *AssessmentHandler) RecordLoss(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body RecordLossRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	loss, err := h.assessments.RecordLoss(ctx.Request.Context(), principal, services.RecordLossInput{
		FamilyID:              body.FamilyID,
		HouseDamage:           body.HouseDamage,
		EstimatedPropertyLoss: body.EstimatedPropertyLoss,
		LivestockLost:         body.LivestockLost,
		CropsLost:             body.CropsLost,
		Remarks:               body.Remarks,
	})

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, loss)
}

func (h *AssessmentHandler) ListLosses(ctx *gin.Context) {
	losses, err := h.assessments.ListLosses(ctx.Request.Context())

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, losses)
}

func (h *AssessmentHandler) GetLoss(ctx *gin.Context) {
	lossID, ok := pathID(ctx, "loss_id")

	if !ok {
		return
	}

	loss, err := h.assessments.GetLoss(ctx.Request.Context(), lossID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, loss)
}
