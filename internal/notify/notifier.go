// Package notify is the fire-and-forget notification side channel. Pushes
// are attached to primary operations (family requests, responses) and their
// failures are logged and discarded; they never fail the operation they
// decorate.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeFamilyRequest  = "family_request"
	TypeFamilyResponse = "family_response"
)

type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	SenderID    *uuid.UUID
	Type        string
	Title       string
	Message     string
	CreatedAt   time.Time
}

type Notifier interface {
	Push(ctx context.Context, n Notification) error
}
