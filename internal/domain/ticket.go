package domain

import (
	"errors"
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "New"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// AllStatuses lists the fixed status set in workflow order.
var AllStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// ErrInvalidStatus is returned when a status is not part of the fixed set.
var ErrInvalidStatus = errors.New("invalid ticket status")

// ChangeKind identifies which part of a ticket an update notification is about.
type ChangeKind string

const (
	ChangeStatus     ChangeKind = "status"
	ChangeResolution ChangeKind = "resolution"
)

// Ticket is the aggregate for support requests. JSON names follow the
// persisted document layout.
type Ticket struct {
	ID          string       `json:"Id"`
	Name        string       `json:"Name"`
	Email       string       `json:"Email"`
	Description string       `json:"Description"`
	Summary     *string      `json:"Summary"`
	ImageURL    string       `json:"ImageUrl"`
	Status      TicketStatus `json:"Status"`
	Resolution  string       `json:"Resolution"`
	CreatedAt   time.Time    `json:"CreatedAt"`
	UpdatedAt   time.Time    `json:"UpdatedAt"`
}

// ParseStatus resolves a user supplied value to a member of the fixed set.
// Matching ignores case, spaces, underscores and dashes.
func ParseStatus(value string) (TicketStatus, bool) {
	key := statusKey(value)
	if key == "" {
		return "", false
	}
	for _, status := range AllStatuses {
		if statusKey(string(status)) == key {
			return status, true
		}
	}
	return "", false
}

// IsValidStatus reports whether value names a status in the fixed set.
func IsValidStatus(value string) bool {
	_, ok := ParseStatus(value)
	return ok
}

// SameStatus compares two status values on their canonical form.
func SameStatus(a, b string) bool {
	return statusKey(a) == statusKey(b)
}

// NormalizeID returns the canonical form used to compare ticket ids.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SameID reports whether two ids denote the same ticket.
func SameID(a, b string) bool {
	return NormalizeID(a) == NormalizeID(b)
}

func statusKey(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
