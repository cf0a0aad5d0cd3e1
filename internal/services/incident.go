package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/notify"
	"github.com/rapidaid/rapidaid/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// incidentTransitions lists, per status, the statuses an admin may move to.
// REJECTED and RESOLVED have no entry: both are terminal.
var incidentTransitions = map[types.IncidentStatus][]types.IncidentStatus{
	types.IncidentReported: {types.IncidentVerified, types.IncidentRejected},
	types.IncidentVerified: {types.IncidentInRescue, types.IncidentResolved},
	types.IncidentInRescue: {types.IncidentResolved},
}

var timelineTitles = map[types.IncidentStatus]string{
	types.IncidentVerified: "Verified",
	types.IncidentRejected: "Rejected",
	types.IncidentInRescue: "In Rescue",
	types.IncidentResolved: "Resolved",
}

func canTransition(from, to types.IncidentStatus) bool {
	for _, next := range incidentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type AttachMediaInput struct {
	URL       string
	MediaType types.MediaType
}

type ReportIncidentInput struct {
	Title        string
	Description  string
	IncidentType types.IncidentType
	Severity     types.Severity
	Location     string
	Latitude     *float64
	Longitude    *float64
	IncidentDate *time.Time
	Metadata     map[string]any
}

type IncidentService struct {
	base
}

func NewIncidentService(d Deps) *IncidentService {
	return &IncidentService{base: newBase(d)}
}

func (s *IncidentService) Report(ctx context.Context, actor types.Principal, in ReportIncidentInput) (*models.Incident, error) {
	if !actor.IsCitizen() {
		return nil, permissionError("Only citizens can report incidents")
	}

	var metadata datatypes.JSON
	if len(in.Metadata) > 0 {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode incident metadata: %w", err)
		}
		metadata = raw
	}

	reporterID := actor.ID
	incident := models.Incident{
		ReporterID:   &reporterID,
		Title:        in.Title,
		Description:  in.Description,
		IncidentType: in.IncidentType,
		Severity:     in.Severity,
		Location:     in.Location,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		IncidentDate: in.IncidentDate,
		Status:       types.IncidentReported,
		Metadata:     metadata,
	}
	if incident.IncidentType == "" {
		incident.IncidentType = types.IncidentOther
	}
	if incident.Severity == "" {
		incident.Severity = types.SeverityLow
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&incident).Error; err != nil {
			return fmt.Errorf("create incident: %w", err)
		}

		entry := models.IncidentTimeline{
			IncidentID:  incident.ID,
			Title:       "Reported",
			Description: "Incident reported by citizen",
			CreatedByID: &reporterID,
			CreatedAt:   s.now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append timeline: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "incident",
			ReferenceID: incident.ID,
			Action:      "reported",
			ActorID:     actor.ID,
			New:         map[string]any{"status": incident.Status, "title": incident.Title},
		})
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, notify.Message{
		IncidentID: incident.ID,
		Event:      notify.EventIncidentReported,
		Subject:    "New incident reported",
		Body:       incident.Title,
		Fields:     incidentFields(&incident),
	})
	s.publish(incident.ID)

	return &incident, nil
}

// Transition moves an incident to target on behalf of an admin. Writing the
// current status again is accepted and changes nothing.
func (s *IncidentService) Transition(ctx context.Context, actor types.Principal, incidentID uint, target types.IncidentStatus, remarks string) (*models.Incident, error) {
	if !actor.IsAdmin() {
		return nil, permissionError("Only admins can change incident status")
	}

	var (
		incident models.Incident
		previous types.IncidentStatus
		changed  bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Reporter").First(&incident, incidentID).Error; err != nil {
			return lookup(err, "Incident")
		}
		previous = incident.Status

		if previous == types.IncidentResolved {
			return terminalStateError("Incident %d is resolved and can no longer change", incident.ID)
		}
		if _, ok := timelineTitles[target]; !ok {
			return invalidTransitionError("Unknown incident status %q", target)
		}
		if previous == types.IncidentRejected {
			return terminalStateError("Incident %d was rejected and can no longer change", incident.ID)
		}
		if target == previous {
			return nil
		}
		if !canTransition(previous, target) {
			return invalidTransitionError("Cannot move incident from %s to %s", previous, target)
		}

		now := s.now()
		updates := map[string]any{"status": target}
		if target == types.IncidentVerified && incident.ApprovedAt == nil {
			approver := actor.ID
			updates["approved_by_id"] = approver
			updates["approved_at"] = now
			incident.ApprovedByID = &approver
			incident.ApprovedAt = stamp(now)
		}

		res := tx.Model(&models.Incident{}).
			Where("id = ? AND status = ?", incident.ID, previous).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update incident status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflictError("Incident %d was modified concurrently", incident.ID)
		}
		incident.Status = target
		changed = true

		description := fmt.Sprintf("Status changed from %s to %s", previous, target)
		if remarks != "" {
			description += ": " + remarks
		}
		approver := actor.ID
		entry := models.IncidentTimeline{
			IncidentID:  incident.ID,
			Title:       timelineTitles[target],
			Description: description,
			CreatedByID: &approver,
			CreatedAt:   now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append timeline: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "incident",
			ReferenceID: incident.ID,
			Action:      "status_changed",
			ActorID:     actor.ID,
			Old:         map[string]any{"status": previous},
			New:         map[string]any{"status": target},
			Note:        remarks,
		})
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		return &incident, nil
	}

	if target == types.IncidentVerified && previous != types.IncidentVerified && incident.Reporter != nil {
		s.notify(ctx, notify.Message{
			UserID:     incident.Reporter.ID,
			IncidentID: incident.ID,
			Event:      notify.EventIncidentVerified,
			To:         incident.Reporter.Email,
			Subject:    "Your incident report has been verified",
			Body: fmt.Sprintf("Hello %s,\n\nYour report %q has been verified by our team. "+
				"Volunteers and rescue teams can now be assigned to it.\n\nThank you for reporting.",
				incident.Reporter.FullName, incident.Title),
		})
	}

	switch target {
	case types.IncidentVerified:
		s.announce(ctx, notify.Message{
			IncidentID: incident.ID,
			Event:      notify.EventIncidentVerified,
			Subject:    "Incident verified",
			Body:       incident.Title,
			Fields:     incidentFields(&incident),
		})
	case types.IncidentResolved:
		s.announce(ctx, notify.Message{
			IncidentID: incident.ID,
			Event:      notify.EventIncidentResolved,
			Subject:    "Incident resolved",
			Body:       incident.Title,
			Fields:     incidentFields(&incident),
		})
	}
	s.publish(incident.ID)

	return &incident, nil
}

func (s *IncidentService) Get(ctx context.Context, incidentID uint) (*models.Incident, error) {
	var incident models.Incident
	if err := s.db.WithContext(ctx).First(&incident, incidentID).Error; err != nil {
		return nil, lookup(err, "Incident")
	}
	return &incident, nil
}

// List returns incidents newest first. Rejected incidents are only visible to
// admins.
func (s *IncidentService) List(ctx context.Context, actor types.Principal, status types.IncidentStatus) ([]models.Incident, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")

	if status != "" {
		if status == types.IncidentRejected && !actor.IsAdmin() {
			return []models.Incident{}, nil
		}
		query = query.Where("status = ?", status)
	} else if !actor.IsAdmin() {
		query = query.Where("status <> ?", types.IncidentRejected)
	}

	var incidents []models.Incident
	if err := query.Find(&incidents).Error; err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return incidents, nil
}

func (s *IncidentService) Timeline(ctx context.Context, incidentID uint) ([]models.IncidentTimeline, error) {
	if _, err := s.Get(ctx, incidentID); err != nil {
		return nil, err
	}

	var entries []models.IncidentTimeline
	err := s.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	return entries, nil
}

func incidentFields(incident *models.Incident) []notify.Field {
	fields := []notify.Field{
		{Name: "Incident", Value: fmt.Sprintf("#%d", incident.ID)},
		{Name: "Type", Value: string(incident.IncidentType)},
		{Name: "Severity", Value: string(incident.Severity)},
		{Name: "Status", Value: string(incident.Status)},
	}
	if incident.Location != "" {
		fields = append(fields, notify.Field{Name: "Location", Value: incident.Location})
	}
	return fields
}

// AttachMedia links a photo or video to an incident. Only the reporter and
// admins may attach media.
func (s *IncidentService) AttachMedia(ctx context.Context, actor types.Principal, incidentID uint, in AttachMediaInput) (*models.IncidentMedia, error) {
	mediaType := in.MediaType
	if mediaType == "" {
		mediaType = types.MediaPhoto
	}
	if mediaType != types.MediaPhoto && mediaType != types.MediaVideo {
		return nil, preconditionError("Unknown media type %q", in.MediaType)
	}
	if in.URL == "" {
		return nil, preconditionError("Media URL is required")
	}

	uploader := actor.ID
	media := models.IncidentMedia{
		IncidentID:   incidentID,
		URL:          in.URL,
		MediaType:    mediaType,
		UploadedByID: &uploader,
		UploadedAt:   s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var incident models.Incident
		if err := tx.First(&incident, incidentID).Error; err != nil {
			return lookup(err, "Incident")
		}

		isReporter := incident.ReporterID != nil && *incident.ReporterID == actor.ID
		if !isReporter && !actor.IsAdmin() {
			return permissionError("Only the reporter or an admin can attach media")
		}

		if err := tx.Create(&media).Error; err != nil {
			return fmt.Errorf("create incident media: %w", err)
		}

		return s.writeLedger(tx, ledgerRecord{
			Module:      "incident",
			ReferenceID: incidentID,
			Action:      "media_attached",
			ActorID:     actor.ID,
			New:         map[string]any{"media_id": media.ID, "media_type": mediaType, "url": in.URL},
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(incidentID)
	return &media, nil
}

func (s *IncidentService) ListMedia(ctx context.Context, incidentID uint) ([]models.IncidentMedia, error) {
	if _, err := s.Get(ctx, incidentID); err != nil {
		return nil, err
	}

	var media []models.IncidentMedia
	err := s.db.WithContext(ctx).
		Where("incident_id = ?", incidentID).
		Order("uploaded_at ASC").Order("id ASC").
		Find(&media).Error
	if err != nil {
		return nil, fmt.Errorf("list incident media: %w", err)
	}
	return media, nil
}
