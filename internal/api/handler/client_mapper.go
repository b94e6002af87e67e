package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skillhub/client-registry/internal/core/domain"
	"github.com/skillhub/client-registry/internal/core/ports"
)

const defaultLanguage = "pt-BR"

// --- Request → Service input ---

func toCreateInput(req createClientRequest) ports.CreateClientInput {
	return ports.CreateClientInput{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Company:     req.Company,
		Role:        domain.Role(req.Role),
		IsAdmin:     req.IsAdmin || domain.Role(req.Role) == domain.RoleAdmin,
		Status:      domain.ClientStatus(req.Status),
		Avatar:      req.Avatar,
		Preferences: toPreferences(req.Preferences),
		Metadata:    toMetadata(req.Metadata),
	}
}

func toPreferences(p *preferencesRequest) domain.Preferences {
	if p == nil {
		return domain.Preferences{
			Theme:         domain.ThemeSystem,
			Language:      defaultLanguage,
			Notifications: domain.NotificationSettings{Email: true, Push: true},
		}
	}
	out := domain.Preferences{
		Theme:    domain.Theme(p.Theme),
		Language: p.Language,
		Notifications: domain.NotificationSettings{
			Email: p.Notifications.Email,
			Push:  p.Notifications.Push,
			SMS:   p.Notifications.SMS,
		},
		Privacy: domain.PrivacySettings{
			ShareData:       p.Privacy.ShareData,
			MarketingEmails: p.Privacy.MarketingEmails,
			Analytics:       p.Privacy.Analytics,
		},
	}
	if out.Theme == "" {
		out.Theme = domain.ThemeSystem
	}
	if out.Language == "" {
		out.Language = defaultLanguage
	}
	return out
}

func toMetadata(m *metadataRequest) domain.Metadata {
	if m == nil {
		return domain.Metadata{
			Source:       domain.SourceDirect,
			Tags:         []string{},
			Priority:     domain.PriorityMedium,
			CustomFields: map[string]any{},
		}
	}
	out := domain.Metadata{
		Source:       domain.Source(m.Source),
		Tags:         m.Tags,
		Notes:        m.Notes,
		AssignedTo:   m.AssignedTo,
		Priority:     domain.Priority(m.Priority),
		CustomFields: m.CustomFields,
	}
	if out.Source == "" {
		out.Source = domain.SourceDirect
	}
	if out.Priority == "" {
		out.Priority = domain.PriorityMedium
	}
	return out
}

func toClientPatch(req updateClientRequest) ports.ClientPatch {
	patch := ports.ClientPatch{
		Name:    trimmed(req.Name),
		Email:   trimmed(req.Email),
		Phone:   req.Phone,
		Company: req.Company,
		IsAdmin: req.IsAdmin,
		Avatar:  req.Avatar,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	if req.Status != nil {
		status := domain.ClientStatus(*req.Status)
		patch.Status = &status
	}
	if req.Preferences != nil {
		prefs := toPreferences(req.Preferences)
		patch.Preferences = &prefs
	}
	if req.Metadata != nil {
		meta := toMetadata(req.Metadata)
		patch.Metadata = &meta
	}
	return patch
}

func toProfilePatch(req updateProfileRequest) ports.ClientPatch {
	patch := ports.ClientPatch{
		Name:    trimmed(req.Name),
		Email:   trimmed(req.Email),
		Phone:   req.Phone,
		Company: req.Company,
		Avatar:  req.Avatar,
	}
	if req.Preferences != nil {
		prefs := toPreferences(req.Preferences)
		patch.Preferences = &prefs
	}
	return patch
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// --- Query string → filter ---

// latestTime bounds an open-ended date range.
var latestTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// toClientFilter reads the list query parameters. Unknown status or role
// values and malformed dates are rejected with 400.
func toClientFilter(c echo.Context) (domain.ClientFilter, error) {
	f := domain.ClientFilter{
		Search:     strings.TrimSpace(c.QueryParam("search")),
		AssignedTo: c.QueryParam("assigned_to"),
	}

	if v := c.QueryParam("status"); v != "" {
		status := domain.ClientStatus(v)
		if !knownStatus(status) {
			return f, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown status %q", v))
		}
		f.Status = status
	}
	if v := c.QueryParam("role"); v != "" {
		role := domain.Role(v)
		if !knownRole(role) {
			return f, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown role %q", v))
		}
		f.Role = role
	}
	if v := c.QueryParam("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}

	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from != "" || to != "" {
		r := &domain.DateRange{End: latestTime}
		if from != "" {
			t, err := time.Parse(time.RFC3339, from)
			if err != nil {
				return f, echo.NewHTTPError(http.StatusBadRequest, "from must be an RFC3339 timestamp")
			}
			r.Start = t
		}
		if to != "" {
			t, err := time.Parse(time.RFC3339, to)
			if err != nil {
				return f, echo.NewHTTPError(http.StatusBadRequest, "to must be an RFC3339 timestamp")
			}
			r.End = t
		}
		f.DateRange = r
	}
	return f, nil
}

func knownStatus(s domain.ClientStatus) bool {
	for _, v := range domain.Statuses {
		if v == s {
			return true
		}
	}
	return false
}

func knownRole(r domain.Role) bool {
	for _, v := range domain.Roles {
		if v == r {
			return true
		}
	}
	return false
}
