// Package publisher emits ledger events to a configured store, either
// synchronously or through a buffered background worker.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"veriledger/pkg/domain"
	events "veriledger/pkg/platform/events"
)

// Publisher emits events to a store. In async mode events are buffered and
// written by a background goroutine; a full buffer drops the event rather
// than blocking the ledger mutation path.
type Publisher struct {
	store  events.Store
	logger *slog.Logger

	inbox  chan events.Event
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan events.Event, size)
	}
}

// WithLogger sets the logger used for drop and append-failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher writing to store. Without options the
// publisher is synchronous.
func NewPublisher(store events.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit records an event. The ID and timestamp are filled in when unset.
// In async mode Emit never blocks; an event that does not fit the buffer is
// dropped and logged. Events emitted after Close are dropped the same way.
func (p *Publisher) Emit(ctx context.Context, event events.Event) error {
	select {
	case <-p.closed:
		p.logger.Warn("publisher closed, dropping event",
			"action", string(event.Action),
			"wallet", event.Wallet.String(),
		)
		return nil
	default:
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.Warn("event buffer full, dropping event",
			"action", string(event.Action),
			"wallet", event.Wallet.String(),
		)
		return nil
	}
}

// List returns stored events for a wallet.
func (p *Publisher) List(ctx context.Context, wallet domain.WalletID) ([]events.Event, error) {
	return p.store.ListByWallet(ctx, wallet)
}

// Close drains the buffer and stops the background worker. Safe to call more
// than once; the inbox channel itself is never closed, so a racing Emit can
// at worst leave an event behind, never panic.
func (p *Publisher) Close() {
	p.once.Do(func() {
		close(p.closed)
		p.wg.Wait()
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			p.append(event)
		case <-p.closed:
			for {
				select {
				case event := <-p.inbox:
					p.append(event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) append(event events.Event) {
	if err := p.store.Append(context.Background(), event); err != nil {
		p.logger.Error("failed to append event",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
}
