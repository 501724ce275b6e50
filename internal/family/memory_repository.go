package family

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and dev mode.
type MemoryRepository struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]Connection
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{connections: make(map[uuid.UUID]Connection)}
}

func (r *MemoryRepository) CreateConnection(_ context.Context, c Connection) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.connections {
		if existing.RequesterID == c.RequesterID && existing.RecipientID == c.RecipientID {
			return nil, ErrDuplicateConnection
		}
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	r.connections[c.ID] = c

	out := c
	return &out, nil
}

func (r *MemoryRepository) GetConnection(_ context.Context, id uuid.UUID) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connections[id]
	if !ok {
		return nil, ErrConnectionNotFound
	}

	out := c
	return &out, nil
}

func (r *MemoryRepository) FindBetween(_ context.Context, a, b uuid.UUID) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.connections {
		if (c.RequesterID == a && c.RecipientID == b) ||
			(c.RequesterID == b && c.RecipientID == a) {
			out := c
			return &out, nil
		}
	}
	return nil, ErrConnectionNotFound
}

func (r *MemoryRepository) ListAccepted(_ context.Context, userID uuid.UUID) ([]Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Connection
	for _, c := range r.connections {
		if c.Involves(userID) && c.Status == StatusAccepted {
			result = append(result, c)
		}
	}

	sortNewestFirst(result)
	return result, nil
}

func (r *MemoryRepository) ListPendingReceived(_ context.Context, userID uuid.UUID) ([]Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Connection
	for _, c := range r.connections {
		if c.RecipientID == userID && c.Status == StatusPending {
			result = append(result, c)
		}
	}

	sortNewestFirst(result)
	return result, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status Status) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connections[id]
	if !ok {
		return nil, ErrConnectionNotFound
	}

	c.Status = status
	c.UpdatedAt = time.Now()
	r.connections[id] = c

	out := c
	return &out, nil
}

func (r *MemoryRepository) DeleteConnection(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[id]; !ok {
		return ErrConnectionNotFound
	}
	delete(r.connections, id)
	return nil
}

func sortNewestFirst(connections []Connection) {
	sort.SliceStable(connections, func(i, j int) bool {
		return connections[i].CreatedAt.After(connections[j].CreatedAt)
	})
}
