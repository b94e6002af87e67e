package domain

import "time"

// Role is the account type of a client.
type Role string

const (
	RoleReseller Role = "reseller"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Roles lists every known role in a stable order.
var Roles = []Role{RoleReseller, RoleCustomer, RoleAdmin}

// ClientStatus is the lifecycle state of a client account.
type ClientStatus string

const (
	StatusActive   ClientStatus = "active"
	StatusInactive ClientStatus = "inactive"
	StatusPending  ClientStatus = "pending"
)

// Statuses lists every known status in a stable order.
var Statuses = []ClientStatus{StatusActive, StatusInactive, StatusPending}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Source records how a client was acquired.
type Source string

const (
	SourceDirect    Source = "direct"
	SourceReferral  Source = "referral"
	SourceMarketing Source = "marketing"
	SourcePartner   Source = "partner"
	SourceSystem    Source = "system"
)

// NotificationSettings toggles each delivery channel.
type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// PrivacySettings holds the client's data-sharing consents.
type PrivacySettings struct {
	ShareData       bool `json:"shareData"`
	MarketingEmails bool `json:"marketingEmails"`
	Analytics       bool `json:"analytics"`
}

// Preferences groups the client's UI and communication choices.
type Preferences struct {
	Theme         Theme                `json:"theme"`
	Language      string               `json:"language"`
	Notifications NotificationSettings `json:"notifications"`
	Privacy       PrivacySettings      `json:"privacy"`
}

// Metadata carries CRM-style bookkeeping attached to a client.
// CustomFields holds arbitrary JSON values keyed by name.
type Metadata struct {
	Source       Source         `json:"source"`
	Tags         []string       `json:"tags"`
	Notes        string         `json:"notes,omitempty"`
	AssignedTo   string         `json:"assignedTo,omitempty"`
	Priority     Priority       `json:"priority"`
	CustomFields map[string]any `json:"customFields"`
}

// HasAnyTag reports whether the metadata carries at least one of tags.
func (m Metadata) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range m.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Clone copies the tag slice and the top level of CustomFields.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Tags != nil {
		out.Tags = append([]string{}, m.Tags...)
	}
	if m.CustomFields != nil {
		out.CustomFields = make(map[string]any, len(m.CustomFields))
		for k, v := range m.CustomFields {
			out.CustomFields[k] = v
		}
	}
	return out
}

// Client is a registered user or reseller account.
//
// ID, CreatedAt and UpdatedAt are owned by the store: ID and CreatedAt are
// stamped once at creation, UpdatedAt on every mutation.
type Client struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone,omitempty"`
	Company     string       `json:"company,omitempty"`
	Role        Role         `json:"role"`
	IsAdmin     bool         `json:"isAdmin"`
	Status      ClientStatus `json:"status"`
	Avatar      string       `json:"avatar,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	LastLogin   *time.Time   `json:"lastLogin,omitempty"`
	Preferences Preferences  `json:"preferences"`
	Metadata    Metadata     `json:"metadata"`
}

// Clone returns a copy that does not alias c's tags, custom fields or last login.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	out := *c
	if c.LastLogin != nil {
		ts := *c.LastLogin
		out.LastLogin = &ts
	}
	out.Metadata = c.Metadata.Clone()
	return &out
}

// Normalize replaces nil collections with empty ones so the JSON form is
// stable ([] and {} rather than null).
func (c *Client) Normalize() {
	if c.Metadata.Tags == nil {
		c.Metadata.Tags = []string{}
	}
	if c.Metadata.CustomFields == nil {
		c.Metadata.CustomFields = map[string]any{}
	}
}
