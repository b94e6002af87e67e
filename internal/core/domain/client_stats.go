package domain

import "time"

// RecentWindow is how far back a registration counts as recent.
const RecentWindow = 30 * 24 * time.Hour

// ClientStats summarises the full client set.
type ClientStats struct {
	Total               int                  `json:"total"`
	Active              int                  `json:"active"`
	Inactive            int                  `json:"inactive"`
	Pending             int                  `json:"pending"`
	ByRole              map[Role]int         `json:"byRole"`
	ByStatus            map[ClientStatus]int `json:"byStatus"`
	RecentRegistrations int                  `json:"recentRegistrations"`
	ConversionRate      float64              `json:"conversionRate"`
}

// ComputeStats aggregates clients as of now. ConversionRate is the share of
// active clients in percent, or 0 for an empty set.
func ComputeStats(clients []*Client, now time.Time) ClientStats {
	stats := ClientStats{
		Total:    len(clients),
		ByRole:   make(map[Role]int, len(Roles)),
		ByStatus: make(map[ClientStatus]int, len(Statuses)),
	}
	for _, r := range Roles {
		stats.ByRole[r] = 0
	}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}

	cutoff := now.Add(-RecentWindow)
	for _, c := range clients {
		stats.ByRole[c.Role]++
		stats.ByStatus[c.Status]++
		if c.CreatedAt.After(cutoff) {
			stats.RecentRegistrations++
		}
	}

	stats.Active = stats.ByStatus[StatusActive]
	stats.Inactive = stats.ByStatus[StatusInactive]
	stats.Pending = stats.ByStatus[StatusPending]
	if stats.Total > 0 {
		stats.ConversionRate = float64(stats.Active) / float64(stats.Total) * 100
	}
	return stats
}
