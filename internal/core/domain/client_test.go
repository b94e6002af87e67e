package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClient_CloneDoesNotAlias(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := &Client{
		ID:        "CLIENT_001",
		LastLogin: &ts,
		Metadata: Metadata{
			Tags:         []string{"a"},
			CustomFields: map[string]any{"k": "v"},
		},
	}

	cp := orig.Clone()
	cp.Metadata.Tags[0] = "changed"
	cp.Metadata.CustomFields["k"] = "changed"
	*cp.LastLogin = ts.Add(time.Hour)

	if orig.Metadata.Tags[0] != "a" || orig.Metadata.CustomFields["k"] != "v" || !orig.LastLogin.Equal(ts) {
		t.Fatalf("clone aliases the original: %+v", orig)
	}

	var nilClient *Client
	if nilClient.Clone() != nil {
		t.Fatalf("clone of nil should be nil")
	}
}

func TestClient_NormalizeStableJSON(t *testing.T) {
	c := &Client{ID: "CLIENT_001"}
	c.Normalize()

	data, err := json.Marshal(c.Metadata)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"source":"","tags":[],"priority":"","customFields":{}}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}
