package notify

import (
	"context"
	"time"

	"github.com/rapidaid/rapidaid/internal/models"
	"github.com/rapidaid/rapidaid/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Events carried on Message.Event.
const (
	EventIncidentReported  = "incident_reported"
	EventIncidentVerified  = "incident_verified"
	EventIncidentResolved  = "incident_resolved"
	EventVolunteerApproved = "volunteer_approved"
	EventVolunteerRejected = "volunteer_rejected"
)

type Field struct {
	Name  string
	Value string
}

type Message struct {
	UserID     uint
	IncidentID uint
	Event      string
	To         string
	Subject    string
	Body       string
	Fields     []Field
}

// Sender delivers a message on one channel.
type Sender interface {
	Channel() string
	Send(ctx context.Context, msg Message) error
}

// Dispatcher delivers direct messages by email and announcements to the
// configured ops channels. It never reports failure to its caller: every
// attempt is logged and recorded in the notifications table instead.
type Dispatcher struct {
	mailer   Sender
	channels []Sender
	db       *gorm.DB
	logger   *zap.Logger
}

func NewDispatcher(db *gorm.DB, logger *zap.Logger, mailer Sender, channels ...Sender) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{mailer: mailer, channels: channels, db: db, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if msg.To == "" {
		d.logger.Warn("Skipping notification without recipient",
			zap.String("event", msg.Event), zap.Uint("user_id", msg.UserID))
		return
	}
	if d.mailer == nil {
		d.logger.Info("Mail is not configured, notification dropped",
			zap.String("event", msg.Event), zap.String("to", msg.To))
		return
	}
	d.deliver(ctx, d.mailer, msg)
}

func (d *Dispatcher) Announce(ctx context.Context, msg Message) {
	for _, ch := range d.channels {
		d.deliver(ctx, ch, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sender Sender, msg Message) {
	err := sender.Send(ctx, msg)

	record := models.Notification{
		Event:     msg.Event,
		Channel:   sender.Channel(),
		Recipient: msg.To,
		Subject:   msg.Subject,
		Message:   msg.Body,
		Status:    types.DeliverySent,
	}
	if msg.UserID != 0 {
		id := msg.UserID
		record.UserID = &id
	}
	if msg.IncidentID != 0 {
		id := msg.IncidentID
		record.IncidentID = &id
	}

	if err != nil {
		record.Status = types.DeliveryFailed
		record.Error = err.Error()
		d.logger.Error("Failed to deliver notification",
			zap.Error(err),
			zap.String("channel", sender.Channel()),
			zap.String("event", msg.Event),
			zap.String("to", msg.To))
	} else {
		sentAt := time.Now().UTC()
		record.SentAt = &sentAt
	}

	if d.db == nil {
		return
	}
	if err := d.db.WithContext(context.WithoutCancel(ctx)).Create(&record).Error; err != nil {
		d.logger.Warn("Failed to record notification", zap.Error(err), zap.String("event", msg.Event))
	}
}
