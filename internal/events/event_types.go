package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/deskline/support-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketResolutionAdded EventType = "ticket_resolution_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	TicketID  string        `json:"ticket_id"`
	Timestamp time.Time     `json:"timestamp"`
	Ticket    domain.Ticket `json:"ticket"`
}

// NewTicketEvent snapshots ticket into an event of the given type.
func NewTicketEvent(eventType EventType, ticket domain.Ticket) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Timestamp: time.Now().UTC(),
		Ticket:    ticket,
	}
}
