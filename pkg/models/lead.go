// Package models holds the value objects shared by the HTTP surface, the
// content store and the notifier.
package models

import (
	"fmt"
	"regexp"
	"strings"
)

var leadEmailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Lead is a contact/interest submission from the marketing site. It is
// validated, archived, and forwarded verbatim to the operator channel; it has
// no lifecycle beyond that.
type Lead struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company,omitempty"`
	ProjectType string `json:"projectType,omitempty"`
	Message     string `json:"message,omitempty"`
	Source      string `json:"source,omitempty"`
	Region      string `json:"region,omitempty"`
	ReceivedTS  string `json:"receivedTs,omitempty"`
}

// Validate checks the required fields; optional fields pass through as-is.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !leadEmailRe.MatchString(strings.TrimSpace(l.Email)) {
		return fmt.Errorf("a valid email is required")
	}
	return nil
}

// Notification renders the lead as the operator-channel message.
func (l *Lead) Notification() string {
	var b strings.Builder
	b.WriteString("New lead: " + l.Name + " <" + l.Email + ">")
	if l.Company != "" {
		b.WriteString("\nCompany: " + l.Company)
	}
	if l.ProjectType != "" {
		b.WriteString("\nProject: " + l.ProjectType)
	}
	if l.Region != "" {
		b.WriteString("\nRegion: " + l.Region)
	}
	if l.Source != "" {
		b.WriteString("\nSource: " + l.Source)
	}
	if l.Message != "" {
		b.WriteString("\n\n" + l.Message)
	}
	return b.String()
}
