package handler

import "github.com/skillhub/client-registry/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type notificationsRequest struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

type privacyRequest struct {
	ShareData       bool `json:"shareData"`
	MarketingEmails bool `json:"marketingEmails"`
	Analytics       bool `json:"analytics"`
}

type preferencesRequest struct {
	Theme         string               `json:"theme"         validate:"omitempty,oneof=light dark system"`
	Language      string               `json:"language"`
	Notifications notificationsRequest `json:"notifications"`
	Privacy       privacyRequest       `json:"privacy"`
}

type metadataRequest struct {
	Source       string         `json:"source"       validate:"omitempty,oneof=direct referral marketing partner system"`
	Tags         []string       `json:"tags"         validate:"omitempty,dive,required"`
	Notes        string         `json:"notes"`
	AssignedTo   string         `json:"assignedTo"`
	Priority     string         `json:"priority"     validate:"omitempty,oneof=low medium high"`
	CustomFields map[string]any `json:"customFields"`
}

type createClientRequest struct {
	Name        string              `json:"name"        validate:"required"`
	Email       string              `json:"email"       validate:"required,email"`
	Phone       string              `json:"phone"`
	Company     string              `json:"company"`
	Role        string              `json:"role"        validate:"required,oneof=reseller customer admin"`
	IsAdmin     bool                `json:"isAdmin"`
	Status      string              `json:"status"      validate:"required,oneof=active inactive pending"`
	Avatar      string              `json:"avatar"`
	Preferences *preferencesRequest `json:"preferences" validate:"omitempty"`
	Metadata    *metadataRequest    `json:"metadata"    validate:"omitempty"`
}

// updateClientRequest is an admin partial update; absent fields are kept.
type updateClientRequest struct {
	Name        *string             `json:"name"        validate:"omitnil,min=1"`
	Email       *string             `json:"email"       validate:"omitnil,email"`
	Phone       *string             `json:"phone"`
	Company     *string             `json:"company"`
	Role        *string             `json:"role"        validate:"omitempty,oneof=reseller customer admin"`
	IsAdmin     *bool               `json:"isAdmin"`
	Status      *string             `json:"status"      validate:"omitempty,oneof=active inactive pending"`
	Avatar      *string             `json:"avatar"`
	Preferences *preferencesRequest `json:"preferences" validate:"omitempty"`
	Metadata    *metadataRequest    `json:"metadata"    validate:"omitempty"`
}

// updateProfileRequest is the subset of fields a client may change on their
// own account.
type updateProfileRequest struct {
	Name        *string             `json:"name"        validate:"omitnil,min=1"`
	Email       *string             `json:"email"       validate:"omitnil,email"`
	Phone       *string             `json:"phone"`
	Company     *string             `json:"company"`
	Avatar      *string             `json:"avatar"`
	Preferences *preferencesRequest `json:"preferences" validate:"omitempty"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=reseller customer admin"`
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive pending"`
}

type listClientsResponse struct {
	Data  []*domain.Client `json:"data"`
	Total int              `json:"total"`
}

type importResponse struct {
	Imported int    `json:"imported"`
	Mode     string `json:"mode"`
}
