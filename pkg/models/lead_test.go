package models

import (
	"strings"
	"testing"
	"time"
)

func TestLeadValidate(t *testing.T) {
	cases := []struct {
		lead Lead
		ok   bool
	}{
		{Lead{Name: "Jane", Email: "jane@example.com"}, true},
		{Lead{Name: "Jane", Email: "jane@example.com", Company: "Acme", Region: "EU"}, true},
		{Lead{Name: "", Email: "jane@example.com"}, false},
		{Lead{Name: "   ", Email: "jane@example.com"}, false},
		{Lead{Name: "Jane", Email: ""}, false},
		{Lead{Name: "Jane", Email: "nope"}, false},
		{Lead{Name: "Jane", Email: "jane@nodot"}, false},
	}
	for _, tc := range cases {
		err := tc.lead.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("Validate(%+v) = %v, want ok=%v", tc.lead, err, tc.ok)
		}
	}
}

func TestLeadNotification(t *testing.T) {
	l := Lead{Name: "Jane", Email: "jane@example.com", Company: "Acme", Message: "Need a site"}
	msg := l.Notification()
	for _, want := range []string{"Jane", "jane@example.com", "Acme", "Need a site"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("notification missing %q: %s", want, msg)
		}
	}
}

func TestPromotionExpired(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		expires string
		want    bool
	}{
		{"", false},
		{"garbage", false},
		{"2026-08-01T00:00:00Z", true},
		{"2026-10-01T00:00:00Z", false},
	}
	for _, tc := range cases {
		p := Promotion{ExpiresAt: tc.expires}
		if got := p.Expired(now); got != tc.want {
			t.Fatalf("Expired(%q) = %v, want %v", tc.expires, got, tc.want)
		}
	}
}
