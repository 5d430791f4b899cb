package dto

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deskline/support-tickets/internal/domain"
)

const (
	maxNameLength        = 100
	maxEmailLength       = 256
	minDescriptionLength = 10
	maxDescriptionLength = 5000

	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// Validate returns field errors keyed by json name, or nil.
func (r CreateTicketRequest) Validate() map[string]any {
	errs := map[string]any{}

	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		errs["name"] = "name is required"
	case utf8.RuneCountInString(name) > maxNameLength:
		errs["name"] = "name must be at most 100 characters"
	}

	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
		errs["email"] = "email is required"
	case len(email) > maxEmailLength:
		errs["email"] = "email must be at most 256 characters"
	case !emailPattern.MatchString(email):
		errs["email"] = "email is not a valid address"
	}

	description := strings.TrimSpace(r.Description)
	switch n := utf8.RuneCountInString(description); {
	case n == 0:
		errs["description"] = "description is required"
	case n < minDescriptionLength:
		errs["description"] = "description must be at least 10 characters"
	case n > maxDescriptionLength:
		errs["description"] = "description must be at most 5000 characters"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// UpdateTicketRequest payload. Absent fields are left unchanged.
type UpdateTicketRequest struct {
	Status     *string `json:"status"`
	Resolution *string `json:"resolution"`
}

// TicketListQuery captures listing query parameters.
type TicketListQuery struct {
	Status   string `query:"status"`
	Search   string `query:"search"`
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
}

// Normalize applies defaults and clamps paging values.
func (q *TicketListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	switch {
	case q.PageSize == 0:
		q.PageSize = DefaultPageSize
	case q.PageSize < 1:
		q.PageSize = 1
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}
}

// TicketResponse is the API view of a ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Description string              `json:"description"`
	Summary     *string             `json:"summary"`
	ImageURL    string              `json:"imageUrl"`
	Status      domain.TicketStatus `json:"status"`
	Resolution  string              `json:"resolution"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// PagedResponse wraps one page of results.
type PagedResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Name:        t.Name,
		Email:       t.Email,
		Description: t.Description,
		Summary:     t.Summary,
		ImageURL:    t.ImageURL,
		Status:      t.Status,
		Resolution:  t.Resolution,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
