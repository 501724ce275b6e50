package family

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/medtrack/internal/notify"
)

func newTestService(t *testing.T) (*Service, *notify.MemoryNotifier) {
	t.Helper()

	notifier := notify.NewMemoryNotifier()
	svc := NewService(NewMemoryRepository(), notifier, zerolog.Nop())
	return svc, notifier
}

func TestSendRequest(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	requester := uuid.New()
	recipient := uuid.New()

	c, err := svc.SendRequest(ctx, requester, recipient, "Mother")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if c.Status != StatusPending {
		t.Errorf("Status = %s, want pending", c.Status)
	}
	if c.Relationship != "Mother" {
		t.Errorf("Relationship = %q", c.Relationship)
	}
	if !c.CanViewMedicine {
		t.Error("new connections should default to medicine access")
	}

	sent := notifier.Sent()
	if len(sent) != 1 {
		t.Fatalf("got %d notifications, want 1", len(sent))
	}
	if sent[0].RecipientID != recipient || sent[0].Type != notify.TypeFamilyRequest {
		t.Errorf("notification = %+v", sent[0])
	}
}

func TestSendRequest_DefaultRelationship(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.SendRequest(context.Background(), uuid.New(), uuid.New(), "")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if c.Relationship != "Family" {
		t.Errorf("Relationship = %q, want Family", c.Relationship)
	}
}

func TestSendRequest_Self(t *testing.T) {
	svc, _ := newTestService(t)
	id := uuid.New()

	if _, err := svc.SendRequest(context.Background(), id, id, ""); !errors.Is(err, ErrSelfConnection) {
		t.Errorf("error = %v, want ErrSelfConnection", err)
	}
}

func TestSendRequest_DuplicateEitherDirection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := uuid.New()
	b := uuid.New()

	if _, err := svc.SendRequest(ctx, a, b, ""); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if _, err := svc.SendRequest(ctx, a, b, ""); !errors.Is(err, ErrAlreadyRequested) {
		t.Errorf("same direction: error = %v, want ErrAlreadyRequested", err)
	}
	if _, err := svc.SendRequest(ctx, b, a, ""); !errors.Is(err, ErrAlreadyRequested) {
		t.Errorf("reverse direction: error = %v, want ErrAlreadyRequested", err)
	}
}

func TestRespond_Accept(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	requester := uuid.New()
	recipient := uuid.New()

	c, err := svc.SendRequest(ctx, requester, recipient, "")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	updated, err := svc.Respond(ctx, recipient, c.ID, StatusAccepted)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if updated.Status != StatusAccepted {
		t.Errorf("Status = %s, want accepted", updated.Status)
	}

	sent := notifier.Sent()
	if len(sent) != 2 {
		t.Fatalf("got %d notifications, want 2", len(sent))
	}
	if sent[1].RecipientID != requester || sent[1].Type != notify.TypeFamilyResponse {
		t.Errorf("response notification = %+v", sent[1])
	}
}

func TestRespond_OnlyRecipientMay(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	requester := uuid.New()
	c, err := svc.SendRequest(ctx, requester, uuid.New(), "")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if _, err := svc.Respond(ctx, requester, c.ID, StatusAccepted); !errors.Is(err, ErrNotRecipient) {
		t.Errorf("requester responding: error = %v, want ErrNotRecipient", err)
	}
	if _, err := svc.Respond(ctx, uuid.New(), c.ID, StatusAccepted); !errors.Is(err, ErrNotRecipient) {
		t.Errorf("stranger responding: error = %v, want ErrNotRecipient", err)
	}
}

func TestRespond_InvalidStatus(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Respond(context.Background(), uuid.New(), uuid.New(), StatusPending); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestRespond_UnknownRequest(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Respond(context.Background(), uuid.New(), uuid.New(), StatusAccepted); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("error = %v, want ErrConnectionNotFound", err)
	}
}

func TestListMembersAndIncoming(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user := uuid.New()
	accepted := uuid.New()
	pendingFrom := uuid.New()

	c, err := svc.SendRequest(ctx, user, accepted, "")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := svc.Respond(ctx, accepted, c.ID, StatusAccepted); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := svc.SendRequest(ctx, pendingFrom, user, ""); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	members, err := svc.ListMembers(ctx, user)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 1 || members[0].Other(user) != accepted {
		t.Errorf("members = %+v, want the accepted connection only", members)
	}

	incoming, err := svc.ListIncoming(ctx, user)
	if err != nil {
		t.Fatalf("ListIncoming: %v", err)
	}
	if len(incoming) != 1 || incoming[0].RequesterID != pendingFrom {
		t.Errorf("incoming = %+v, want the pending request only", incoming)
	}
}

func TestRemove(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	requester := uuid.New()
	recipient := uuid.New()

	c, err := svc.SendRequest(ctx, requester, recipient, "")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if err := svc.Remove(ctx, uuid.New(), c.ID); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("stranger remove: error = %v, want ErrNotParticipant", err)
	}

	if err := svc.Remove(ctx, recipient, c.ID); err != nil {
		t.Fatalf("recipient remove: %v", err)
	}
	if err := svc.Remove(ctx, requester, c.ID); !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("second remove: error = %v, want ErrConnectionNotFound", err)
	}
}

func TestAuthorize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	viewer := uuid.New()
	member := uuid.New()

	if err := svc.Authorize(ctx, viewer, member); !errors.Is(err, ErrNotConnected) {
		t.Errorf("no connection: error = %v, want ErrNotConnected", err)
	}

	c, err := svc.SendRequest(ctx, viewer, member, "")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if err := svc.Authorize(ctx, viewer, member); !errors.Is(err, ErrNotConnected) {
		t.Errorf("pending connection: error = %v, want ErrNotConnected", err)
	}

	if _, err := svc.Respond(ctx, member, c.ID, StatusAccepted); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if err := svc.Authorize(ctx, viewer, member); err != nil {
		t.Errorf("accepted connection: %v", err)
	}
	// The permission is symmetric.
	if err := svc.Authorize(ctx, member, viewer); err != nil {
		t.Errorf("reverse direction: %v", err)
	}
}

func TestAuthorize_RejectedConnection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	viewer := uuid.New()
	member := uuid.New()

	c, err := svc.SendRequest(ctx, viewer, member, "")
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := svc.Respond(ctx, member, c.ID, StatusRejected); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if err := svc.Authorize(ctx, viewer, member); !errors.Is(err, ErrNotConnected) {
		t.Errorf("rejected connection: error = %v, want ErrNotConnected", err)
	}
}

// Push failures from the notifier must not surface to callers.
type failingNotifier struct{}

func (failingNotifier) Push(context.Context, notify.Notification) error {
	return errors.New("push backend down")
}

func TestSendRequest_NotifierFailureIgnored(t *testing.T) {
	svc := NewService(NewMemoryRepository(), failingNotifier{}, zerolog.Nop())

	if _, err := svc.SendRequest(context.Background(), uuid.New(), uuid.New(), ""); err != nil {
		t.Errorf("SendRequest with failing notifier: %v", err)
	}
}
