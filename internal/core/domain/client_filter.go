package domain

import (
	"strings"
	"time"
)

// DateRange is an inclusive creation-time window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ClientFilter narrows a client listing. Zero-valued fields are ignored and
// the remaining predicates are ANDed together.
type ClientFilter struct {
	Search     string       // case-insensitive substring of name, email or company
	Status     ClientStatus // exact match
	Role       Role         // exact match
	Tags       []string     // at least one tag in common
	DateRange  *DateRange   // createdAt within [Start, End]
	AssignedTo string       // exact match on metadata.assignedTo
}

// IsEmpty reports whether the filter has no active predicate.
func (f ClientFilter) IsEmpty() bool {
	return f.Search == "" && f.Status == "" && f.Role == "" &&
		len(f.Tags) == 0 && f.DateRange == nil && f.AssignedTo == ""
}

// Matches reports whether c satisfies every active predicate.
func (f ClientFilter) Matches(c *Client) bool {
	if f.Search != "" && !matchesSearch(c, strings.ToLower(f.Search)) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Role != "" && c.Role != f.Role {
		return false
	}
	if len(f.Tags) > 0 && !c.Metadata.HasAnyTag(f.Tags) {
		return false
	}
	if f.DateRange != nil {
		if c.CreatedAt.Before(f.DateRange.Start) || c.CreatedAt.After(f.DateRange.End) {
			return false
		}
	}
	if f.AssignedTo != "" && c.Metadata.AssignedTo != f.AssignedTo {
		return false
	}
	return true
}

func matchesSearch(c *Client, needle string) bool {
	if strings.Contains(strings.ToLower(c.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Email), needle) {
		return true
	}
	return c.Company != "" && strings.Contains(strings.ToLower(c.Company), needle)
}
