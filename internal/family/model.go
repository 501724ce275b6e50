package family

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Connection links two patients. Requester sends the invite; recipient
// accepts or rejects. The relationship label is from the requester's
// perspective. CanViewMedicine gates the medicine-sharing endpoints.
type Connection struct {
	ID              uuid.UUID
	RequesterID     uuid.UUID
	RecipientID     uuid.UUID
	Relationship    string
	Status          Status
	CanViewMedicine bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Other returns the counterpart of userID in the connection.
func (c Connection) Other(userID uuid.UUID) uuid.UUID {
	if c.RequesterID == userID {
		return c.RecipientID
	}
	return c.RequesterID
}

func (c Connection) Involves(userID uuid.UUID) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}
