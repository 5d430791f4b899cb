package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/deskline/support-tickets/internal/domain"
)

func newFileRepo(t *testing.T, opts TicketRepositoryOptions) (TicketRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "tickets.json")
	if opts.Logger == nil {
		opts.Logger = zaptest.NewLogger(t)
	}
	return NewTicketRepository(NewFileDocumentStore(path), opts), path
}

func sampleTicket(name string) domain.Ticket {
	return domain.Ticket{
		Name:        name,
		Email:       strings.ToLower(name) + "@example.com",
		Description: "printer is on fire again",
		Status:      domain.TicketStatusNew,
	}
}

func TestFirstUseCreatesEmptyStore(t *testing.T) {
	repo, path := newFileRepo(t, TicketRepositoryOptions{})

	tickets, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestCreateAssignsIDAndPersists(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t, TicketRepositoryOptions{})

	created, err := repo.Create(ctx, sampleTicket("Alice"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

	// A fresh repository over the same file sees the ticket.
	reopened := NewTicketRepository(NewFileDocumentStore(path), TicketRepositoryOptions{})
	got, found, err := reopened.GetByID(ctx, strings.ToUpper(created.ID))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Nil(t, got.Summary)
}

func TestCreateRejectsDuplicateIDCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t, TicketRepositoryOptions{})

	first := sampleTicket("Alice")
	first.ID = "Ticket-ABC"
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	dup := sampleTicket("Bob")
	dup.ID = "ticket-abc"
	_, err = repo.Create(ctx, dup)
	require.ErrorIs(t, err, ErrDuplicateID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetByIDBlankOrMissing(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t, TicketRepositoryOptions{})

	_, found, err := repo.GetByID(ctx, "   ")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateReplacesInPlaceAndRefreshesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo, _ := newFileRepo(t, TicketRepositoryOptions{Now: func() time.Time { return clock }})

	a, err := repo.Create(ctx, sampleTicket("Alice"))
	require.NoError(t, err)
	b, err := repo.Create(ctx, sampleTicket("Bob"))
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	a.Status = domain.TicketStatusResolved
	a.Resolution = "replaced toner"
	updated, found, err := repo.Update(ctx, a)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, clock, updated.UpdatedAt)
	assert.Equal(t, a.CreatedAt, updated.CreatedAt)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, domain.TicketStatusResolved, all[0].Status)
	assert.Equal(t, "replaced toner", all[0].Resolution)
	assert.Equal(t, b.ID, all[1].ID)
}

func TestUpdateMissingOrBlankID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t, TicketRepositoryOptions{})

	_, found, err := repo.Update(ctx, domain.Ticket{})
	require.NoError(t, err)
	assert.False(t, found)

	ghost := sampleTicket("Ghost")
	ghost.ID = "does-not-exist"
	_, found, err = repo.Update(ctx, ghost)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMalformedStoreIsEmptyByDefault(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t, TicketRepositoryOptions{})
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	tickets, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestMalformedStoreFailsInStrictMode(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t, TicketRepositoryOptions{StrictDecode: true})
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := repo.GetAll(ctx)
	require.ErrorIs(t, err, ErrCorruptStore)

	_, err = repo.Create(ctx, sampleTicket("Alice"))
	require.ErrorIs(t, err, ErrCorruptStore)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestUnknownFieldsAreTolerated(t *testing.T) {
	ctx := context.Background()
	repo, path := newFileRepo(t, TicketRepositoryOptions{})
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	doc := `[{"Id":"abc","Name":"Alice","Email":"alice@example.com","Description":"long enough text",
	  "Summary":"short","ImageUrl":"","Status":"In Progress","Resolution":"","Priority":"high",
	  "CreatedAt":"2024-01-01T00:00:00Z","UpdatedAt":"2024-01-02T00:00:00Z"}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	got, found, err := repo.GetByID(ctx, "ABC")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "short", *got.Summary)
}

func TestConcurrentCreatesAreSerialized(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t, TicketRepositoryOptions{})

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, sampleTicket(fmt.Sprintf("User%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, n)
	seen := make(map[string]struct{}, n)
	for _, ticket := range all {
		key := domain.NormalizeID(ticket.ID)
		_, dup := seen[key]
		assert.False(t, dup, "duplicate id %s", ticket.ID)
		seen[key] = struct{}{}
	}
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	repo, _ := newFileRepo(t, TicketRepositoryOptions{})

	ids := make([]string, 10)
	for i := range ids {
		created, err := repo.Create(ctx, sampleTicket(fmt.Sprintf("User%d", i)))
		require.NoError(t, err)
		ids[i] = created.ID
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			current, found, err := repo.GetByID(ctx, id)
			if !assert.NoError(t, err) || !assert.True(t, found) {
				return
			}
			current.Resolution = fmt.Sprintf("fixed %d", i)
			_, _, err = repo.Update(ctx, current)
			assert.NoError(t, err)
		}(i, id)
	}
	wg.Wait()

	for i, id := range ids {
		got, found, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, fmt.Sprintf("fixed %d", i), got.Resolution)
	}
}

func TestLockAcquireHonoursCancellation(t *testing.T) {
	repo, _ := newFileRepo(t, TicketRepositoryOptions{})
	impl := repo.(*documentTicketRepository)
	require.NoError(t, impl.lock.Acquire(context.Background(), 1))
	defer impl.lock.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := repo.GetAll(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type failingStore struct{ err error }

func (s failingStore) Init(context.Context) error           { return nil }
func (s failingStore) Read(context.Context) ([]byte, error) { return nil, s.err }
func (s failingStore) Write(context.Context, []byte) error  { return s.err }

func TestStorageErrorsPropagate(t *testing.T) {
	diskErr := fmt.Errorf("disk full")
	repo := NewTicketRepository(failingStore{err: diskErr}, TicketRepositoryOptions{})

	_, err := repo.GetAll(context.Background())
	require.ErrorIs(t, err, diskErr)
	_, err = repo.Create(context.Background(), sampleTicket("Alice"))
	require.ErrorIs(t, err, diskErr)
}
