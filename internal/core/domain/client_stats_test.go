package domain

import (
	"math"
	"testing"
	"time"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())

	if stats.Total != 0 || stats.ConversionRate != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	for _, r := range Roles {
		if n, ok := stats.ByRole[r]; !ok || n != 0 {
			t.Fatalf("ByRole[%s] should be present and zero", r)
		}
	}
	for _, s := range Statuses {
		if n, ok := stats.ByStatus[s]; !ok || n != 0 {
			t.Fatalf("ByStatus[%s] should be present and zero", s)
		}
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clients := []*Client{
		{Role: RoleReseller, Status: StatusActive, CreatedAt: now.Add(-time.Hour)},
		{Role: RoleCustomer, Status: StatusActive, CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{Role: RoleCustomer, Status: StatusPending, CreatedAt: now.Add(-29 * 24 * time.Hour)},
		{Role: RoleAdmin, Status: StatusInactive, CreatedAt: now.Add(-31 * 24 * time.Hour)},
		{Role: RoleReseller, Status: StatusInactive, CreatedAt: now.Add(-RecentWindow)},
	}

	stats := ComputeStats(clients, now)

	if stats.Total != 5 || stats.Active != 2 || stats.Inactive != 2 || stats.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.ByRole[RoleReseller] != 2 || stats.ByRole[RoleCustomer] != 2 || stats.ByRole[RoleAdmin] != 1 {
		t.Fatalf("unexpected ByRole: %v", stats.ByRole)
	}
	if stats.RecentRegistrations != 3 {
		t.Fatalf("RecentRegistrations = %d, want 3", stats.RecentRegistrations)
	}
	if math.Abs(stats.ConversionRate-40) > 1e-9 {
		t.Fatalf("ConversionRate = %v, want 40", stats.ConversionRate)
	}
}
