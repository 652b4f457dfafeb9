package events

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var got []string
	dispatcher.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.TicketID)
		return nil
	})
	dispatcher.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.TicketID)
		return nil
	})
	dispatcher.Subscribe(EventTicketClosed, func(_ context.Context, e Event) error {
		got = append(got, "closed:"+e.TicketID)
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{
		Type:     EventTicketCreated,
		TicketID: "t-1",
		Actor:    domain.SystemActor(),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	want := []string{"first:t-1", "second:t-1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	invoked := false
	dispatcher.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(EventTicketUpdated, func(context.Context, Event) error {
		invoked = true
		return nil
	})

	if err := dispatcher.Publish(context.Background(), Event{Type: EventTicketUpdated}); err != nil {
		t.Fatalf("publish must swallow handler errors, got %v", err)
	}
	if !invoked {
		t.Fatal("second handler not invoked after first failed")
	}
}

func TestDispatcherNoSubscribers(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()
	if err := dispatcher.Publish(context.Background(), Event{Type: EventTicketSlaWarning}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}
