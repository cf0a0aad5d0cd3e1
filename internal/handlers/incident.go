package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/services"
	"github.com/rapidaid/rapidaid/internal/types"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ReportIncidentRequest struct {
	Title        string             `json:"title" binding:"required"`
	Description  string             `json:"description" binding:"required"`
	IncidentType types.IncidentType `json:"incident_type" binding:"omitempty,oneof=fire flood landslide accident other"`
	Severity     types.Severity     `json:"severity" binding:"omitempty,oneof=low medium high critical"`
	Location     string             `json:"location"`
	Latitude     *float64           `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude    *float64           `json:"longitude" binding:"omitempty,min=-180,max=180"`
	IncidentDate *time.Time         `json:"incident_date"`
	Metadata     map[string]any     `json:"metadata"`
}

type UpdateIncidentStatusRequest struct {
	Status  types.IncidentStatus `json:"status" binding:"required"`
	Remarks string               `json:"remarks"`
}

type AttachMediaRequest struct {
	URL       string          `json:"url" binding:"required,url"`
	MediaType types.MediaType `json:"media_type" binding:"omitempty,oneof=photo video"`
}

type IncidentResponse struct {
	ID           uint                 `json:"id"`
	ReporterID   *uint                `json:"reporter_id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	IncidentType types.IncidentType   `json:"incident_type"`
	Severity     types.Severity       `json:"severity"`
	Location     string               `json:"location"`
	Latitude     *float64             `json:"latitude"`
	Longitude    *float64             `json:"longitude"`
	IncidentDate *time.Time           `json:"incident_date"`
	Status       types.IncidentStatus `json:"status"`
	ApprovedByID *uint                `json:"approved_by_id"`
	ApprovedAt   *time.Time           `json:"approved_at"`
	Metadata     datatypes.JSON       `json:"metadata,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type TimelineEntryResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedByID *uint     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func newIncidentResponse(i *models.Incident) IncidentResponse {
	return IncidentResponse{
		ID:           i.ID,
		ReporterID:   i.ReporterID,
		Title:        i.Title,
		Description:  i.Description,
		IncidentType: i.IncidentType,
		Severity:     i.Severity,
		Location:     i.Location,
		Latitude:     i.Latitude,
		Longitude:    i.Longitude,
		IncidentDate: i.IncidentDate,
		Status:       i.Status,
		ApprovedByID: i.ApprovedByID,
		ApprovedAt:   i.ApprovedAt,
		Metadata:     i.Metadata,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

type IncidentHandler struct {
	incidents *services.IncidentService
	logger    *zap.Logger
}

func NewIncidentHandler(incidents *services.IncidentService, logger *zap.Logger) *IncidentHandler {
	return &IncidentHandler{incidents: incidents, logger: logger}
}

func (h *IncidentHandler) Report(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	var body ReportIncidentRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	incident, err := h.incidents.Report(ctx.Request.Context(), principal, services.ReportIncidentInput{
		Title:        body.Title,
		Description:  body.Description,
		IncidentType: body.IncidentType,
		Severity:     body.Severity,
		Location:     body.Location,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		IncidentDate: body.IncidentDate,
		Metadata:     body.Metadata,
	})

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, newIncidentResponse(incident))
}

func (h *IncidentHandler) List(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	incidents, err := h.incidents.List(ctx.Request.Context(), principal, types.IncidentStatus(ctx.Query("status")))

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	response := make([]IncidentResponse, 0, len(incidents))
	for i := range incidents {
		response = append(response, newIncidentResponse(&incidents[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *IncidentHandler) Get(ctx *gin.Context) {
	incidentID, ok := pathID(ctx, "incident_id")

	if !ok {
		return
	}

	incident, err := h.incidents.Get(ctx.Request.Context(), incidentID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, newIncidentResponse(incident))
}

func (h *IncidentHandler) Timeline(ctx *gin.Context) {
	incidentID, ok := pathID(ctx, "incident_id")

	if !ok {
		return
	}

	entries, err := h.incidents.Timeline(ctx.Request.Context(), incidentID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	response := make([]TimelineEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, TimelineEntryResponse{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			CreatedByID: e.CreatedByID,
			CreatedAt:   e.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *IncidentHandler) UpdateStatus(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	incidentID, ok := pathID(ctx, "incident_id")

	if !ok {
		return
	}

	var body UpdateIncidentStatusRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	incident, err := h.incidents.Transition(ctx.Request.Context(), principal, incidentID, body.Status, body.Remarks)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, newIncidentResponse(incident))
}

func (h *IncidentHandler) AttachMedia(ctx *gin.Context) {
	principal, ok := currentUser(ctx)

	if !ok {
		return
	}

	incidentID, ok := pathID(ctx, "incident_id")

	if !ok {
		return
	}

	var body AttachMediaRequest

	if !bindJSON(ctx, h.logger, &body) {
		return
	}

	media, err := h.incidents.AttachMedia(ctx.Request.Context(), principal, incidentID, services.AttachMediaInput{
		URL:       body.URL,
		MediaType: body.MediaType,
	})

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, media)
}

func (h *IncidentHandler) ListMedia(ctx *gin.Context) {
	incidentID, ok := pathID(ctx, "incident_id")

	if !ok {
		return
	}

	media, err := h.incidents.ListMedia(ctx.Request.Context(), incidentID)

	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, media)
}
