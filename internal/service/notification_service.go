package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/deskline/support-tickets/internal/domain"
	"github.com/deskline/support-tickets/internal/events"
	"github.com/deskline/support-tickets/internal/observability"
)

// Notifier delivers ticket notifications to the submitter.
type Notifier interface {
	SendTicketCreated(ctx context.Context, ticket domain.Ticket) error
	SendTicketUpdated(ctx context.Context, ticket domain.Ticket, kind domain.ChangeKind) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.notifier == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketResolutionAdded, n.handleTicketResolutionAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Debug("TicketCreated", zap.String("ticket_id", event.TicketID))
	return n.record(event, n.notifier.SendTicketCreated(ctx, event.Ticket))
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Debug("TicketStatusChanged",
		zap.String("ticket_id", event.TicketID),
		zap.String("status", string(event.Ticket.Status)))
	return n.record(event, n.notifier.SendTicketUpdated(ctx, event.Ticket, domain.ChangeStatus))
}

func (n *NotificationService) handleTicketResolutionAdded(ctx context.Context, event events.Event) error {
	n.logger.Debug("TicketResolutionAdded", zap.String("ticket_id", event.TicketID))
	return n.record(event, n.notifier.SendTicketUpdated(ctx, event.Ticket, domain.ChangeResolution))
}

func (n *NotificationService) record(event events.Event, err error) error {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	n.metrics.RecordNotification(string(event.Type), outcome)
	return err
}
