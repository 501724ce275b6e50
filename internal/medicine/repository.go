package medicine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPlanNotFound = errors.New("medicine plan not found")
	ErrLogNotFound  = errors.New("medicine log not found")

	// ErrDuplicateLog is returned by CreateLog when the slot key already has
	// a row (the DB unique index fired). The recorder retries it as an
	// update instead of surfacing it.
	ErrDuplicateLog = errors.New("log already exists for this dose slot")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	CreatePlan(ctx context.Context, p Plan) (*Plan, error)

	// GetPlan is ownership-scoped: a plan belonging to another patient is
	// ErrPlanNotFound, not a leak.
	GetPlan(ctx context.Context, patientID, planID uuid.UUID) (*Plan, error)

	ListActivePlans(ctx context.Context, patientID uuid.UUID) ([]Plan, error)

	// ListActivePlansOverlapping returns active plans whose
	// [startDate, endDate-or-infinity] interval overlaps the day range.
	// Recurrence filtering happens in the timeline, not here.
	ListActivePlansOverlapping(ctx context.Context, patientID uuid.UUID, day DayRange) ([]Plan, error)

	UpdatePlan(ctx context.Context, p Plan) (*Plan, error)

	// DeactivatePlan flags the plan inactive (soft delete).
	DeactivatePlan(ctx context.Context, patientID, planID uuid.UUID) error

	// DeleteLogsForPlan removes all logs of a plan, used when the plan is
	// deleted.
	DeleteLogsForPlan(ctx context.Context, planID uuid.UUID) error

	// ListLogs returns the patient's logs whose scheduled date falls in the
	// day range.
	ListLogs(ctx context.Context, patientID uuid.UUID, day DayRange) ([]Log, error)

	GetLogBySlot(ctx context.Context, key SlotKey) (*Log, error)
	CreateLog(ctx context.Context, l Log) (*Log, error)
	UpdateLogStatus(ctx context.Context, key SlotKey, status LogStatus, actionAt time.Time) (*Log, error)
}
