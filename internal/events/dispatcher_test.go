package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/support-tickets/internal/domain"
)

type recordingExecutor struct {
	names []string
	fns   []func(context.Context) error
	err   error
}

func (e *recordingExecutor) Submit(name string, fn func(context.Context) error) error {
	if e.err != nil {
		return e.err
	}
	e.names = append(e.names, name)
	e.fns = append(e.fns, fn)
	return nil
}

func TestPublishInlineWithoutExecutor(t *testing.T) {
	d := NewDispatcher(nil, nil)
	var got []Event
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e)
		return errors.New("ignored")
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})

	event := NewTicketEvent(EventTicketCreated, domain.Ticket{ID: "t-1", Email: "a@b.co"})
	require.NoError(t, d.Publish(context.Background(), event))
	require.Len(t, got, 2)
	assert.Equal(t, "t-1", got[0].TicketID)
	assert.Equal(t, "a@b.co", got[1].Ticket.Email)
}

func TestPublishInlineSurvivesCancelledContext(t *testing.T) {
	d := NewDispatcher(nil, nil)
	var handlerErr error
	d.Subscribe(EventTicketStatusChanged, func(ctx context.Context, _ Event) error {
		handlerErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Publish(ctx, NewTicketEvent(EventTicketStatusChanged, domain.Ticket{ID: "t-1"})))
	assert.NoError(t, handlerErr)
}

func TestPublishSubmitsToExecutor(t *testing.T) {
	exec := &recordingExecutor{}
	d := NewDispatcher(exec, nil)
	var called bool
	d.Subscribe(EventTicketResolutionAdded, func(_ context.Context, e Event) error {
		called = true
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		t.Fatal("unrelated handler invoked")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewTicketEvent(EventTicketResolutionAdded, domain.Ticket{ID: "t-2"})))
	require.Len(t, exec.fns, 1)
	assert.Equal(t, []string{string(EventTicketResolutionAdded)}, exec.names)
	assert.False(t, called, "handler must not run before the executor runs it")

	require.NoError(t, exec.fns[0](context.Background()))
	assert.True(t, called)
}

func TestPublishReportsSchedulingFailure(t *testing.T) {
	full := errors.New("queue full")
	d := NewDispatcher(&recordingExecutor{err: full}, nil)
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { return nil })

	err := d.Publish(context.Background(), NewTicketEvent(EventTicketCreated, domain.Ticket{ID: "t-3"}))
	assert.ErrorIs(t, err, full)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	d := NewDispatcher(&recordingExecutor{}, nil)
	assert.NoError(t, d.Publish(context.Background(), NewTicketEvent(EventTicketCreated, domain.Ticket{})))
}
