package types

const ContextUserKey = "user"

const RequestIDHeader = "X-Request-ID"

type Role string

const (
	RoleCitizen        Role = "citizen"
	RoleAdmin          Role = "admin"
	RoleRescueTeam     Role = "rescue_team"
	RoleAssessmentTeam Role = "assessment_team"
	RoleDonor          Role = "donor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleAdmin, RoleRescueTeam, RoleAssessmentTeam, RoleDonor:
		return true
	}
	return false
}

type IncidentStatus string

const (
	IncidentReported IncidentStatus = "reported"
	IncidentVerified IncidentStatus = "verified"
	IncidentRejected IncidentStatus = "rejected"
	IncidentInRescue IncidentStatus = "in_rescue"
	IncidentResolved IncidentStatus = "resolved"
)

type VolunteerStatus string

const (
	VolunteerPending   VolunteerStatus = "pending"
	VolunteerApproved  VolunteerStatus = "approved"
	VolunteerRejected  VolunteerStatus = "rejected"
	VolunteerCompleted VolunteerStatus = "completed"
)

type RescueStatus string

const (
	RescueAssigned  RescueStatus = "assigned"
	RescueActive    RescueStatus = "active"
	RescueCompleted RescueStatus = "completed"
)

type IncidentType string

const (
	IncidentFire      IncidentType = "fire"
	IncidentFlood     IncidentType = "flood"
	IncidentLandslide IncidentType = "landslide"
	IncidentAccident  IncidentType = "accident"
	IncidentOther     IncidentType = "other"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type HouseDamage string

const (
	HouseDamageNone    HouseDamage = "none"
	HouseDamagePartial HouseDamage = "partial"
	HouseDamageFull    HouseDamage = "full"
)

type DonationType string

const (
	DonationMoney DonationType = "money"
	DonationItem  DonationType = "item"
)

type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

type DonorType string

const (
	DonorIndividual   DonorType = "individual"
	DonorOrganization DonorType = "organization"
)

// Notification channels and delivery states recorded in the notifications table.
const (
	ChannelEmail    = "email"
	ChannelDiscord  = "discord"
	ChannelSlack    = "slack"
	ChannelTelegram = "telegram"

	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)
