package service

import (
	"context"
	"sync"
	"time"

	"signal_portal/internal/models"
)

// Store tracks, per dedup key, the last bar time that already produced a
// signal. Claim is the atomic check-and-mark the engine uses: it returns
// true exactly once per (key, barTime), and only bar times newer than the
// stored mark ever claim — overlapping polling windows re-seeing the same
// closed bar are rejected. Memory stays bounded at one mark per key.
type Store interface {
	// ShouldEmit reports whether barTime is newer than the last mark for key.
	ShouldEmit(ctx context.Context, key models.DedupKey, barTime time.Time) (bool, error)
	// MarkEmitted records barTime as the last mark, only moving forward.
	MarkEmitted(ctx context.Context, key models.DedupKey, barTime time.Time) error
	// Claim performs ShouldEmit and MarkEmitted as one atomic step.
	Claim(ctx context.Context, key models.DedupKey, barTime time.Time) (bool, error)
	// ResetKind drops every mark governed by the given strategy kind, used
	// when that strategy's parameters change.
	ResetKind(ctx context.Context, kind models.StrategyKind) error
}

// Memory is the in-process store; it guarantees idempotence within one
// process lifetime.
type Memory struct {
	mu    sync.Mutex
	marks map[models.DedupKey]time.Time
}

func NewMemory() *Memory {
	return &Memory{marks: make(map[models.DedupKey]time.Time)}
}

func (m *Memory) ShouldEmit(_ context.Context, key models.DedupKey, barTime time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.newer(key, barTime), nil
}

func (m *Memory) MarkEmitted(_ context.Context, key models.DedupKey, barTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.newer(key, barTime) {
		m.marks[key] = barTime
	}
	return nil
}

func (m *Memory) Claim(_ context.Context, key models.DedupKey, barTime time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.newer(key, barTime) {
		return false, nil
	}
	m.marks[key] = barTime
	return true, nil
}

func (m *Memory) ResetKind(_ context.Context, kind models.StrategyKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.marks {
		if key.Strategy == kind {
			delete(m.marks, key)
		}
	}
	return nil
}

// Len reports the number of retained marks, bounded by the active matrix.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.marks)
}

func (m *Memory) newer(key models.DedupKey, barTime time.Time) bool {
	last, ok := m.marks[key]
	return !ok || barTime.After(last)
}
