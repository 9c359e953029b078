package repo

import (
	"context"
	"sync"

	"github.com/Skotchmaster/storefront/services/storefront/internal/models"
	"github.com/google/uuid"
)

type Timeline interface {
	Append(ctx context.Context, ev models.TimelineEvent) error
	List(ctx context.Context, orderID uuid.UUID) ([]models.TimelineEvent, error)
}

// MemoryTimeline keeps history in process; used when no MONGO_URI is configured.
type MemoryTimeline struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]models.TimelineEvent
}

func NewMemoryTimeline() *MemoryTimeline {
	return &MemoryTimeline{events: make(map[uuid.UUID][]models.TimelineEvent)}
}

func (t *MemoryTimeline) Append(_ context.Context, ev models.TimelineEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[ev.OrderID] = append(t.events[ev.OrderID], ev)
	return nil
}

func (t *MemoryTimeline) List(_ context.Context, orderID uuid.UUID) ([]models.TimelineEvent, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.TimelineEvent, len(t.events[orderID]))
	copy(out, t.events[orderID])
	return out, nil
}
