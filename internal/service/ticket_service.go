package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deskline/support-tickets/internal/domain"
	"github.com/deskline/support-tickets/internal/events"
	"github.com/deskline/support-tickets/internal/observability"
	"github.com/deskline/support-tickets/internal/repository"
	apperrors "github.com/deskline/support-tickets/pkg/util"
)

// persistReserveDivisor sets the fraction of a request deadline held back from
// summary generation: a fifth of the remaining time.
const persistReserveDivisor = 5

// Summarizer produces a short summary for a ticket description. An empty
// result without error means no summary is available.
type Summarizer interface {
	GenerateSummary(ctx context.Context, description string) (string, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	summarizer Summarizer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Summarizer Summarizer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload. It is validated at the
// HTTP boundary.
type TicketCreateInput struct {
	Name        string
	Email       string
	Description string
}

// TicketUpdateInput carries optional changes. Nil fields are left untouched.
type TicketUpdateInput struct {
	Status     *string
	Resolution *string
}

// TicketFilter describes listing filters. Page is 1-based.
type TicketFilter struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// TicketPage is one page of a filtered listing.
type TicketPage struct {
	Items      []domain.Ticket
	TotalCount int
	Page       int
	PageSize   int
	TotalPages int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		summarizer: deps.Summarizer,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// GetTickets returns the filtered tickets, newest first, sliced to one page.
func (s *TicketService) GetTickets(ctx context.Context, filter TicketFilter) (TicketPage, error) {
	all, err := s.tickets.GetAll(ctx)
	if err != nil {
		return TicketPage{}, fmt.Errorf("list tickets: %w", err)
	}

	status := strings.TrimSpace(filter.Status)
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if status != "" && !domain.SameStatus(string(ticket.Status), status) {
			continue
		}
		if search != "" && !matchesSearch(ticket, search) {
			continue
		}
		matched = append(matched, ticket)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := filter.Page
	if page < 1 {
		page = 1
	}
	result := TicketPage{
		Items:      []domain.Ticket{},
		TotalCount: len(matched),
		Page:       page,
		PageSize:   filter.PageSize,
	}
	if filter.PageSize <= 0 {
		return result, nil
	}
	result.TotalPages = (len(matched) + filter.PageSize - 1) / filter.PageSize

	if page > result.TotalPages {
		return result, nil
	}
	start := (page - 1) * filter.PageSize
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	result.Items = matched[start:end]
	return result, nil
}

// GetTicketByID returns the ticket with the given id, compared case-insensitively.
func (s *TicketService) GetTicketByID(ctx context.Context, id string) (domain.Ticket, bool, error) {
	ticket, found, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, false, fmt.Errorf("get ticket: %w", err)
	}
	if !found {
		s.logger.Warn("ticket not found", zap.String("ticket_id", id))
	}
	return ticket, found, nil
}

// CreateTicket summarises, persists and announces a new ticket. A failing or
// slow summarizer leaves Summary nil; cancellation of ctx aborts the create.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (domain.Ticket, error) {
	summary, err := s.summarize(ctx, input.Description)
	if err != nil {
		return domain.Ticket{}, err
	}

	now := s.now().UTC()
	ticket, err := s.tickets.Create(ctx, domain.Ticket{
		Name:        input.Name,
		Email:       input.Email,
		Description: input.Description,
		Summary:     summary,
		ImageURL:    "",
		Status:      domain.TicketStatusNew,
		Resolution:  "",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			return domain.Ticket{}, fmt.Errorf("%w: %w", apperrors.NewConflict("ticket already exists", nil), err)
		}
		return domain.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	s.metrics.RecordTicketCreated()
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.Bool("has_summary", ticket.Summary != nil))
	s.notifyAsync(ctx, events.EventTicketCreated, ticket)
	return ticket, nil
}

// UpdateTicket applies status and resolution changes. found is false when no
// ticket has the id. An unknown status is rejected before anything is stored.
func (s *TicketService) UpdateTicket(ctx context.Context, id string, input TicketUpdateInput) (domain.Ticket, bool, error) {
	ticket, found, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return domain.Ticket{}, false, fmt.Errorf("load ticket: %w", err)
	}
	if !found {
		s.logger.Warn("ticket not found for update", zap.String("ticket_id", id))
		return domain.Ticket{}, false, nil
	}

	var statusChanged, resolutionChanged bool
	if input.Status != nil && strings.TrimSpace(*input.Status) != "" &&
		!domain.SameStatus(string(ticket.Status), *input.Status) {
		status, ok := domain.ParseStatus(*input.Status)
		if !ok {
			return domain.Ticket{}, true, apperrors.NewInvalidArgument(
				fmt.Sprintf("Invalid status: %s", *input.Status),
				map[string]any{"status": *input.Status},
				domain.ErrInvalidStatus,
			)
		}
		ticket.Status = status
		statusChanged = true
	}
	if input.Resolution != nil && *input.Resolution != ticket.Resolution {
		ticket.Resolution = *input.Resolution
		resolutionChanged = true
	}

	ticket.UpdatedAt = s.now().UTC()
	updated, found, err := s.tickets.Update(ctx, ticket)
	if err != nil {
		return domain.Ticket{}, false, fmt.Errorf("update ticket: %w", err)
	}
	if !found {
		s.logger.Warn("ticket disappeared during update", zap.String("ticket_id", id))
		return domain.Ticket{}, false, nil
	}

	s.logger.Info("ticket updated",
		zap.String("ticket_id", updated.ID),
		zap.Bool("status_changed", statusChanged),
		zap.Bool("resolution_changed", resolutionChanged))
	switch {
	case statusChanged:
		s.notifyAsync(ctx, events.EventTicketStatusChanged, updated)
	case resolutionChanged:
		s.notifyAsync(ctx, events.EventTicketResolutionAdded, updated)
	}
	return updated, true, nil
}

func (s *TicketService) summarize(ctx context.Context, description string) (*string, error) {
	if s.summarizer == nil {
		return nil, nil
	}
	callCtx, cancel := summaryContext(ctx)
	defer cancel()
	summary, err := s.summarizer.GenerateSummary(callCtx, description)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		s.logger.Warn("summary generation failed, continuing without summary", zap.Error(err))
		return nil, nil
	}
	if strings.TrimSpace(summary) == "" {
		return nil, nil
	}
	return &summary, nil
}

// summaryContext keeps back a share of the caller's remaining time for
// storing the ticket once the summary step gives up.
func summaryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return ctx, func() {}
	}
	reserve := time.Until(deadline) / persistReserveDivisor
	return context.WithDeadline(ctx, deadline.Add(-reserve))
}

// notifyAsync hands the event to the dispatcher and returns immediately.
// Delivery happens on the background pool; scheduling failures are logged.
func (s *TicketService) notifyAsync(ctx context.Context, eventType events.EventType, ticket domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewTicketEvent(eventType, ticket)); err != nil {
		s.logger.Error("notification dropped",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}
}

func matchesSearch(ticket domain.Ticket, needle string) bool {
	return strings.Contains(strings.ToLower(ticket.Name), needle) ||
		strings.Contains(strings.ToLower(ticket.Email), needle) ||
		strings.Contains(strings.ToLower(ticket.Description), needle)
}
