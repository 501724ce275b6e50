package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgNotifier stores notifications in Postgres for the client apps to poll.
type PgNotifier struct {
	pool *pgxpool.Pool
}

func NewPgNotifier(pool *pgxpool.Pool) *PgNotifier {
	return &PgNotifier{pool: pool}
}

func (n *PgNotifier) Push(ctx context.Context, notification Notification) error {
	id := notification.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	createdAt := notification.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := n.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, sender_id, type, title, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, notification.RecipientID, notification.SenderID,
		notification.Type, notification.Title, notification.Message, createdAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// MemoryNotifier collects pushes in memory, for tests and dev mode.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) Push(_ context.Context, notification Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *MemoryNotifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, len(n.sent))
	copy(out, n.sent)
	return out
}
