package modules

import (
	"context"
	"sync"
	"time"

	"veriledger/pkg/domain"
	"veriledger/pkg/requestcontext"
)

// DailyLimit caps the total amount a holder may send per UTC day. Mints are
// exempt; forced transfers count against the sender's limit like any other
// outgoing movement.
type DailyLimit struct {
	mu    sync.RWMutex
	limit uint64
	sent  map[domain.WalletID]dailyCounter
}

type dailyCounter struct {
	day    time.Time
	amount uint64
}

func NewDailyLimit(limit uint64) *DailyLimit {
	return &DailyLimit{
		limit: limit,
		sent:  make(map[domain.WalletID]dailyCounter),
	}
}

func (m *DailyLimit) Name() string { return "daily-limit" }

func (m *DailyLimit) CanTransfer(ctx context.Context, from, to domain.WalletID, amount uint64) (bool, error) {
	if from.IsNil() {
		return true, nil
	}
	day := dayOf(requestcontext.Now(ctx))

	m.mu.RLock()
	defer m.mu.RUnlock()
	counter := m.sent[from]
	if !counter.day.Equal(day) {
		counter.amount = 0
	}
	return counter.amount+amount <= m.limit, nil
}

func (m *DailyLimit) Transferred(ctx context.Context, from, to domain.WalletID, amount uint64) error {
	day := dayOf(requestcontext.Now(ctx))

	m.mu.Lock()
	defer m.mu.Unlock()
	counter := m.sent[from]
	if !counter.day.Equal(day) {
		counter = dailyCounter{day: day}
	}
	counter.amount += amount
	m.sent[from] = counter
	return nil
}

func (m *DailyLimit) Created(ctx context.Context, to domain.WalletID, amount uint64) error {
	return nil
}

func (m *DailyLimit) Destroyed(ctx context.Context, from domain.WalletID, amount uint64) error {
	return nil
}

func dayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
