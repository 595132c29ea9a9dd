package notification

import "time"

// Settings is the company block and routing injected from configuration.
type Settings struct {
	AdminEmail     string
	CompanyName    string
	CompanyWebsite string
	SupportEmail   string
	SupportPhone   string
}

// DefaultSettings is the company block used when configuration leaves it
// empty. CompanyName also feeds the welcome subject.
func DefaultSettings() Settings {
	return Settings{
		AdminEmail:     "hr@techcorp.com",
		CompanyName:    "VRrid Solutions",
		CompanyWebsite: "www.vrridsolutions.com",
		SupportEmail:   "support@vrridsolutions.com",
		SupportPhone:   "+1-555-VRRID",
	}
}

// Envelope is one outbound mail before rendering. It is JSON encoded when queued
// through Redis.
type Envelope struct {
	Kind     Kind         `json:"kind"`
	Audience Audience     `json:"audience"`
	To       string       `json:"to"`
	Subject  string       `json:"subject"`
	Template Template     `json:"template"`
	Data     TemplateData `json:"data"`
}

type TemplateData struct {
	Title          string   `json:"title"`
	CompanyName    string   `json:"companyName"`
	CompanyWebsite string   `json:"companyWebsite"`
	SupportEmail   string   `json:"supportEmail"`
	SupportPhone   string   `json:"supportPhone"`
	CurrentTime    string   `json:"currentTime"`
	User           Snapshot `json:"user"`
	ChangedFields  []string `json:"changedFields,omitempty"`
	UpdateTime     string   `json:"updateTime,omitempty"`
	DeletionReason string   `json:"deletionReason,omitempty"`
}

func (s Settings) baseData(title string, user Snapshot, now time.Time) TemplateData {
	return TemplateData{
		Title:          title,
		CompanyName:    s.CompanyName,
		CompanyWebsite: s.CompanyWebsite,
		SupportEmail:   s.SupportEmail,
		SupportPhone:   s.SupportPhone,
		CurrentTime:    now.Format(TimeLayout),
		User:           user,
	}
}
