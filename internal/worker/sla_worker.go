package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// SlaWorker periodically scans open tickets whose committed deadline has
// passed and publishes a warning event per ticket. Breach itself is a
// derived condition, not a status; the ticket is never mutated here.
type SlaWorker struct {
	lifecycle  *service.LifecycleService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	interval   time.Duration

	mu     sync.Mutex
	warned map[string]struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSlaWorker builds the worker. A zero interval disables it.
func NewSlaWorker(lifecycle *service.LifecycleService, dispatcher events.Dispatcher, logger *zap.Logger, interval time.Duration) *SlaWorker {
	return &SlaWorker{
		lifecycle:  lifecycle,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		warned:     make(map[string]struct{}),
	}
}

// Start launches the scan loop. It returns immediately.
func (w *SlaWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("sla scanner disabled")
		return
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.scan(ctx)
			}
		}
	}()
}

// Stop halts the scan loop and waits for the in-flight pass to finish.
func (w *SlaWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

// scan publishes one warning per ticket per continuous breach. Every
// pass replaces the warned set with the currently breached ids, so the
// set stays bounded and a ticket that is resolved and breaches again
// warns again. The set is in memory only; a restart may re-warn, which
// is acceptable for an advisory signal.
func (w *SlaWorker) scan(ctx context.Context) {
	tickets, err := w.lifecycle.GetSlaBreaches(ctx)
	if err != nil {
		w.logger.Error("sla scan failed", zap.Error(err))
		return
	}

	current := make(map[string]struct{}, len(tickets))
	fresh := tickets[:0]
	w.mu.Lock()
	for _, ticket := range tickets {
		current[ticket.ID] = struct{}{}
		if _, seen := w.warned[ticket.ID]; !seen {
			fresh = append(fresh, ticket)
		}
	}
	w.warned = current
	w.mu.Unlock()

	for _, ticket := range fresh {
		if ticket.CommittedDueAt == nil {
			continue
		}
		w.logger.Warn("sla breach detected",
			zap.String("ticket_id", ticket.ID),
			zap.String("ticket_number", ticket.TicketNumber),
			zap.Time("committed_due_at", *ticket.CommittedDueAt),
		)

		event := events.Event{
			ID:           uuid.NewString(),
			Type:         events.EventTicketSlaWarning,
			TicketID:     ticket.ID,
			TicketNumber: ticket.TicketNumber,
			Actor:        domain.SystemActor(),
			Timestamp:    time.Now().UTC(),
			Payload: events.SlaWarningPayload{
				CommittedDueAt: *ticket.CommittedDueAt,
				EmployeeStatus: string(ticket.EmployeeStatus),
				CustomerID:     ticket.CustomerID,
				EmployeeID:     ticket.ResponsibleEmployeeID,
			},
		}
		if err := w.dispatcher.Publish(ctx, event); err != nil {
			w.logger.Error("sla warning publish failed", zap.Error(err))
		}
	}
}
