package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/services"
	"github.com/rapidaid/rapidaid/internal/types"
	"go.uber.org/zap"
)

type RegisterDonorRequest struct {
	DonorType types.DonorType `json:"donor_type" binding:"omitempty,oneof=individual organization"`
}

type DonateRequest struct {
	IncidentID      uint               `json:"incident_id" binding:"required"`
	FamilyID        *uint              `json:"family_id"`
	DonationType    types.DonationType `json:"donation_type" binding:"required,oneof=money item"`
	Amount          *float64           `json:"amount"`
	ItemDescription string             `json:"item_description"`
	Quantity        *int               `json:"quantity"`
}

type DistributeRequest struct {
	FamilyID      uint   `json:"family_id" binding:"required"`
	ProofPhotoURL string `json:"proof_photo_url" binding:"omitempty,url"`
}

type DonationHandler struct {
	donations *services.DonationService
	logger    *zap.Logger
}

func NewDonationHandler(donations *services.DonationService, logger *zap.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, logger: logger}
}

func (h *DonationHandler) RegisterDonor(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body RegisterDonorRequest

	// The body is optional; donor_type defaults to individual.
	if ctx.Request.ContentLength != 0 && !bindJSON(ctx, h.logger, &body) {
		return
	}

	donor, err := h.donations.RegisterDonor(ctx.Request.Context(), principal, body.DonorType)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, donor)
}

func (h *DonationHandler) Donate(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body DonateRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	donation, err := h.donations.Donate(ctx.Request.Context(), principal, services.DonateInput{
		IncidentID:      body.IncidentID,
		FamilyID:        body.FamilyID,
		DonationType:    body.DonationType,
		Amount:          body.Amount,
		ItemDescription: body.ItemDescription,
		Quantity:        body.Quantity,
	})

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, donation)
}

func (h *DonationHandler) List(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	donations, err := h.donations.ListDonations(ctx.Request.Context(), principal)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, donations)
}

func (h *DonationHandler) Distribute(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	donationID, ok := pathID(ctx, "donation_id")

	if !ok {
		return
	}

	var body DistributeRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	distribution, err := h.donations.Distribute(ctx.Request.Context(), principal, donationID, body.FamilyID, body.ProofPhotoURL)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, distribution)
}
