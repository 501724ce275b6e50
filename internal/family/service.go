package family

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/medtrack/internal/notify"
)

var (
	ErrSelfConnection   = errors.New("cannot add yourself as a family member")
	ErrAlreadyRequested = errors.New("a request to this user already exists")
	ErrNotRecipient     = errors.New("this request was not sent to you")
	ErrNotParticipant   = errors.New("you are not part of this connection")
	ErrInvalidResponse  = errors.New("response must be accepted or rejected")

	// ErrNotConnected gates the medicine-sharing endpoints: no accepted
	// connection with medicine-view permission exists between the two users.
	ErrNotConnected = errors.New("not an accepted family connection with medicine access")
)

type Service struct {
	repo     Repository
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier notify.Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// SendRequest creates a pending connection from requester to recipient.
func (s *Service) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID, relationship string) (*Connection, error) {
	if requesterID == recipientID {
		return nil, ErrSelfConnection
	}

	existing, err := s.repo.FindBetween(ctx, requesterID, recipientID)
	if err != nil && !errors.Is(err, ErrConnectionNotFound) {
		return nil, fmt.Errorf("check existing connection: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRequested
	}

	if relationship == "" {
		relationship = "Family"
	}

	now := s.now()
	c := Connection{
		ID:              uuid.New(),
		RequesterID:     requesterID,
		RecipientID:     recipientID,
		Relationship:    relationship,
		Status:          StatusPending,
		CanViewMedicine: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.repo.CreateConnection(ctx, c)
	if err != nil {
		if errors.Is(err, ErrDuplicateConnection) {
			return nil, ErrAlreadyRequested
		}
		return nil, fmt.Errorf("create connection: %w", err)
	}

	s.pushQuietly(ctx, notify.Notification{
		RecipientID: recipientID,
		SenderID:    &requesterID,
		Type:        notify.TypeFamilyRequest,
		Title:       "New family request",
		Message:     "You have a new family connection request.",
	})

	return created, nil
}

// Respond lets the recipient accept or reject a pending request.
func (s *Service) Respond(ctx context.Context, userID, requestID uuid.UUID, status Status) (*Connection, error) {
	if status != StatusAccepted && status != StatusRejected {
		return nil, ErrInvalidResponse
	}

	c, err := s.repo.GetConnection(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrConnectionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load connection: %w", err)
	}

	if c.RecipientID != userID {
		return nil, ErrNotRecipient
	}

	updated, err := s.repo.UpdateStatus(ctx, requestID, status)
	if err != nil {
		return nil, fmt.Errorf("update connection status: %w", err)
	}

	s.pushQuietly(ctx, notify.Notification{
		RecipientID: c.RequesterID,
		SenderID:    &userID,
		Type:        notify.TypeFamilyResponse,
		Title:       "Family request " + string(status),
		Message:     fmt.Sprintf("Your family request was %s.", status),
	})

	return updated, nil
}

// ListMembers returns the user's accepted connections.
func (s *Service) ListMembers(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	connections, err := s.repo.ListAccepted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list family members: %w", err)
	}
	return connections, nil
}

// ListIncoming returns pending requests addressed to the user.
func (s *Service) ListIncoming(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	requests, err := s.repo.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return requests, nil
}

// Remove deletes a connection. Either side may remove it.
func (s *Service) Remove(ctx context.Context, userID, connectionID uuid.UUID) error {
	c, err := s.repo.GetConnection(ctx, connectionID)
	if err != nil {
		if errors.Is(err, ErrConnectionNotFound) {
			return err
		}
		return fmt.Errorf("load connection: %w", err)
	}

	if !c.Involves(userID) {
		return ErrNotParticipant
	}

	if err := s.repo.DeleteConnection(ctx, connectionID); err != nil {
		return fmt.Errorf("delete connection: %w", err)
	}
	return nil
}

// Authorize is the precondition for viewing a family member's medicine data:
// an accepted connection between viewer and member, in either direction, with
// the medicine-view flag set. Returns ErrNotConnected otherwise.
func (s *Service) Authorize(ctx context.Context, viewerID, memberID uuid.UUID) error {
	c, err := s.repo.FindBetween(ctx, viewerID, memberID)
	if err != nil {
		if errors.Is(err, ErrConnectionNotFound) {
			return ErrNotConnected
		}
		return fmt.Errorf("check connection: %w", err)
	}

	if c.Status != StatusAccepted || !c.CanViewMedicine {
		return ErrNotConnected
	}
	return nil
}

// pushQuietly dispatches a notification without letting a failure reach the
// primary operation.
func (s *Service) pushQuietly(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Push(ctx, n); err != nil {
		s.log.Warn().Err(err).
			Str("type", n.Type).
			Str("recipient_id", n.RecipientID.String()).
			Msg("notification push failed")
	}
}
