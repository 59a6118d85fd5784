package models

import "time"

// Promotion is a time-limited marketing record. Only ExpiresAt is interpreted
// server-side, by the retention sweeper; everything else is presentation data
// passed through the content store untouched.
type Promotion struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// Expired reports whether the promotion's expiry lies before now. Promotions
// without an expiry, or with one that does not parse, never expire.
func (p *Promotion) Expired(now time.Time) bool {
	if p.ExpiresAt == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, p.ExpiresAt)
	if err != nil {
		return false
	}
	return t.Before(now)
}
