package events

import (
	"context"
	"log"
	"time"

	"github.com/jobtrack-app/jobtrack/internal/store"
)

// Sink is where the dispatcher delivers events; satisfied by Publisher.
type Sink interface {
	Publish(subject string, payload []byte, msgID string) error
}

// Dispatcher drains the store's outbox into the event sink. Failed
// deliveries are retried with backoff; rows are marked published only after
// delivery so nothing is lost across restarts.
type Dispatcher struct {
	store *store.Store
	sink  Sink

	idleDelay time.Duration
	backoff   time.Duration
}

func NewDispatcher(s *store.Store, sink Sink) *Dispatcher {
	return &Dispatcher{
		store:     s,
		sink:      sink,
		idleDelay: 500 * time.Millisecond,
		backoff:   10 * time.Second,
	}
}

// Run dispatches until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := d.DispatchOnce(ctx)
		if err != nil {
			log.Printf("outbox: dequeue: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if n == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.idleDelay):
			}
		}
	}
}

// DispatchOnce drains one batch and returns how many messages it attempted.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	messages, err := d.store.DequeueOutbox(ctx, 100)
	if err != nil {
		return 0, err
	}

	for _, msg := range messages {
		if err := d.sink.Publish(msg.Subject, msg.Payload, msg.MsgID); err != nil {
			log.Printf("outbox: publish message %d: %v", msg.ID, err)
			if err := d.store.MarkOutboxRetry(ctx, msg.ID, d.backoff); err != nil {
				log.Printf("outbox: mark retry %d: %v", msg.ID, err)
			}
			continue
		}
		if err := d.store.MarkPublished(ctx, msg.ID); err != nil {
			log.Printf("outbox: mark published %d: %v", msg.ID, err)
		}
	}
	return len(messages), nil
}
