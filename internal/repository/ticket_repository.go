package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/deskline/support-tickets/internal/domain"
)

var (
	// ErrDuplicateID is returned by Create when the id is already stored.
	ErrDuplicateID = errors.New("ticket id already exists")
	// ErrCorruptStore is returned in strict mode when the document cannot be decoded.
	ErrCorruptStore = errors.New("ticket store is corrupt")
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	GetAll(ctx context.Context) ([]domain.Ticket, error)
	GetByID(ctx context.Context, id string) (domain.Ticket, bool, error)
	Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error)
	Update(ctx context.Context, ticket domain.Ticket) (domain.Ticket, bool, error)
}

// TicketRepositoryOptions tunes the document-backed repository.
type TicketRepositoryOptions struct {
	// StrictDecode makes a malformed document an error instead of an empty collection.
	StrictDecode bool
	Logger       *zap.Logger
	Now          func() time.Time
}

// documentTicketRepository stores the full collection as one JSON array.
// Every operation holds lock for its whole read-modify-write span.
type documentTicketRepository struct {
	store       DocumentStore
	lock        *semaphore.Weighted
	initialized bool
	strict      bool
	logger      *zap.Logger
	now         func() time.Time
}

// NewTicketRepository instantiates a repository over store.
func NewTicketRepository(store DocumentStore, opts TicketRepositoryOptions) TicketRepository {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &documentTicketRepository{
		store:  store,
		lock:   semaphore.NewWeighted(1),
		strict: opts.StrictDecode,
		logger: logger,
		now:    now,
	}
}

func (r *documentTicketRepository) GetAll(ctx context.Context) ([]domain.Ticket, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	defer r.lock.Release(1)
	return r.load(ctx)
}

func (r *documentTicketRepository) GetByID(ctx context.Context, id string) (domain.Ticket, bool, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Ticket{}, false, nil
	}
	tickets, err := r.GetAll(ctx)
	if err != nil {
		return domain.Ticket{}, false, err
	}
	if i := indexOf(tickets, id); i >= 0 {
		return tickets[i], true, nil
	}
	return domain.Ticket{}, false, nil
}

func (r *documentTicketRepository) Create(ctx context.Context, ticket domain.Ticket) (domain.Ticket, error) {
	if strings.TrimSpace(ticket.ID) == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusNew
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.now().UTC()
	}
	if ticket.UpdatedAt.Before(ticket.CreatedAt) {
		ticket.UpdatedAt = ticket.CreatedAt
	}

	if err := r.acquire(ctx); err != nil {
		return domain.Ticket{}, err
	}
	defer r.lock.Release(1)

	tickets, err := r.load(ctx)
	if err != nil {
		return domain.Ticket{}, err
	}
	if indexOf(tickets, ticket.ID) >= 0 {
		return domain.Ticket{}, fmt.Errorf("%w: %s", ErrDuplicateID, ticket.ID)
	}

	tickets = append(tickets, ticket)
	if err := r.save(ctx, tickets); err != nil {
		return domain.Ticket{}, err
	}
	return ticket, nil
}

func (r *documentTicketRepository) Update(ctx context.Context, ticket domain.Ticket) (domain.Ticket, bool, error) {
	if strings.TrimSpace(ticket.ID) == "" {
		return domain.Ticket{}, false, nil
	}

	if err := r.acquire(ctx); err != nil {
		return domain.Ticket{}, false, err
	}
	defer r.lock.Release(1)

	tickets, err := r.load(ctx)
	if err != nil {
		return domain.Ticket{}, false, err
	}
	i := indexOf(tickets, ticket.ID)
	if i < 0 {
		return domain.Ticket{}, false, nil
	}

	ticket.UpdatedAt = r.now().UTC()
	if ticket.UpdatedAt.Before(ticket.CreatedAt) {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	tickets[i] = ticket

	if err := r.save(ctx, tickets); err != nil {
		return domain.Ticket{}, false, err
	}
	return ticket, true, nil
}

func (r *documentTicketRepository) acquire(ctx context.Context) error {
	if err := r.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire ticket store lock: %w", err)
	}
	if r.initialized {
		return nil
	}
	if err := r.store.Init(ctx); err != nil {
		r.lock.Release(1)
		return err
	}
	r.initialized = true
	return nil
}

// load must be called with the lock held.
func (r *documentTicketRepository) load(ctx context.Context) ([]domain.Ticket, error) {
	data, err := r.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Ticket{}, nil
	}
	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		if r.strict {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
		}
		r.logger.Error("ticket store is malformed; treating as empty", zap.Error(err))
		return []domain.Ticket{}, nil
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// save must be called with the lock held.
func (r *documentTicketRepository) save(ctx context.Context, tickets []domain.Ticket) error {
	data, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tickets: %w", err)
	}
	return r.store.Write(ctx, data)
}

func indexOf(tickets []domain.Ticket, id string) int {
	for i := range tickets {
		if domain.SameID(tickets[i].ID, id) {
			return i
		}
	}
	return -1
}
