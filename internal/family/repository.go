package family

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrConnectionNotFound = errors.New("family connection not found")

	// ErrDuplicateConnection is returned by CreateConnection when a
	// connection between the pair already exists in the requested direction.
	ErrDuplicateConnection = errors.New("family connection already exists")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreateConnection(ctx context.Context, c Connection) (*Connection, error)
	GetConnection(ctx context.Context, id uuid.UUID) (*Connection, error)

	// FindBetween looks up a connection between two users in either
	// direction, regardless of status.
	FindBetween(ctx context.Context, a, b uuid.UUID) (*Connection, error)

	// ListAccepted returns accepted connections involving the user.
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]Connection, error)

	// ListPendingReceived returns pending requests where the user is the
	// recipient.
	ListPendingReceived(ctx context.Context, userID uuid.UUID) ([]Connection, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Connection, error)
	DeleteConnection(ctx context.Context, id uuid.UUID) error
}
