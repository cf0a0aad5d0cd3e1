package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/services"
	"go.uber.org/zap"
)

type AddLedgerNoteRequest struct {
	Module      string `json:"module" binding:"required"`
	ReferenceID uint   `json:"reference_id" binding:"required"`
	Note        string `json:"note" binding:"required"`
}

type LedgerHandler struct {
	ledger *services.LedgerService
	logger *zap.Logger
}

func NewLedgerHandler(ledger *services.LedgerService, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: logger}
}

func (h *LedgerHandler) List(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	referenceID, ok := queryID(ctx, "reference_id")

	if !ok {
		return
	}

	entries, err := h.ledger.List(ctx.Request.Context(), principal, ctx.Query("module"), referenceID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

func (h *LedgerHandler) AddNote(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body AddLedgerNoteRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	entry, err := h.ledger.AddNote(ctx.Request.Context(), principal, body.Module, body.ReferenceID, body.Note)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}
