package notification

import (
	"strings"
	"time"
)

// TimeLayout is the human readable timestamp used in mail bodies.
const TimeLayout = "2006-01-02 15:04:05"

const DefaultDeletionReason = "Employee permanently removed from system"

type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

type Template string

const (
	TemplateUserCreated Template = "user-created"
	TemplateWelcomeUser Template = "welcome-user"
	TemplateUserUpdated Template = "user-updated"
	TemplateUserDeleted Template = "user-deleted"
)

// Audience tells whether an envelope goes to the administrative mailbox or
// to the employee the message is about.
type Audience string

const (
	AudienceAdmin    Audience = "admin"
	AudienceEmployee Audience = "employee"
)

// Snapshot is the copy of a user record carried by a message. It is decoupled
// from the user package so queued envelopes stay self-contained.
type Snapshot struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	Department  string    `json:"department"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s Snapshot) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Message is one of Created, Updated or Deleted. The set is closed: the
// unexported method keeps other packages from adding variants.
type Message interface {
	Kind() Kind
	Record() Snapshot
	envelopes(settings Settings, now time.Time) []Envelope
}

type Created struct {
	User Snapshot
}

type Updated struct {
	User      Snapshot
	Changes   []string
	UpdatedAt time.Time
}

type Deleted struct {
	User   Snapshot
	Reason string
}

func (Created) Kind() Kind { return KindCreated }
func (Updated) Kind() Kind { return KindUpdated }
func (Deleted) Kind() Kind { return KindDeleted }

func (m Created) Record() Snapshot { return m.User }
func (m Updated) Record() Snapshot { return m.User }
func (m Deleted) Record() Snapshot { return m.User }

func (m Created) envelopes(settings Settings, now time.Time) []Envelope {
	return []Envelope{
		{
			Kind:     KindCreated,
			Audience: AudienceAdmin,
			To:       settings.AdminEmail,
			Subject:  "New Employee Created - " + m.User.FullName(),
			Template: TemplateUserCreated,
			Data:     settings.baseData("New Employee Created", m.User, now),
		},
		{
			Kind:     KindCreated,
			Audience: AudienceEmployee,
			To:       m.User.Email,
			Subject:  "Welcome to " + settings.CompanyName + " - Your Account is Ready",
			Template: TemplateWelcomeUser,
			Data:     settings.baseData("Welcome to "+settings.CompanyName, m.User, now),
		},
	}
}

func (m Updated) envelopes(settings Settings, now time.Time) []Envelope {
	data := settings.baseData("Employee Updated", m.User, now)
	data.ChangedFields = append([]string(nil), m.Changes...)
	updatedAt := m.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	data.UpdateTime = updatedAt.Format(TimeLayout)

	return []Envelope{
		{
			Kind:     KindUpdated,
			Audience: AudienceAdmin,
			To:       settings.AdminEmail,
			Subject:  "Employee Updated - " + m.User.FullName(),
			Template: TemplateUserUpdated,
			Data:     data,
		},
		{
			Kind:     KindUpdated,
			Audience: AudienceEmployee,
			To:       m.User.Email,
			Subject:  "Your Account Has Been Updated",
			Template: TemplateUserUpdated,
			Data:     data,
		},
	}
}

func (m Deleted) envelopes(settings Settings, now time.Time) []Envelope {
	data := settings.baseData("Employee Deactivated", m.User, now)
	data.DeletionReason = m.Reason
	if data.DeletionReason == "" {
		data.DeletionReason = DefaultDeletionReason
	}

	return []Envelope{
		{
			Kind:     KindDeleted,
			Audience: AudienceAdmin,
			To:       settings.AdminEmail,
			Subject:  "Employee Deactivated - " + m.User.FullName(),
			Template: TemplateUserDeleted,
			Data:     data,
		},
	}
}

// Compose expands a message into the envelopes that should be delivered.
func Compose(msg Message, settings Settings, now time.Time) []Envelope {
	if msg == nil {
		return nil
	}
	return msg.envelopes(settings, now)
}
