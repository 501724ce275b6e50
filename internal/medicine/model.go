package medicine

import (
	"time"

	"github.com/google/uuid"
)

type Form string

const (
	FormTablet    Form = "tablet"
	FormCapsule   Form = "capsule"
	FormSyrup     Form = "syrup"
	FormInjection Form = "injection"
	FormOther     Form = "other"
)

func (f Form) Valid() bool {
	switch f {
	case FormTablet, FormCapsule, FormSyrup, FormInjection, FormOther:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyDaily        Frequency = "daily"
	FrequencySpecificDays Frequency = "specific_days"
	FrequencyInterval     Frequency = "interval"
	FrequencyWeekly       Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencySpecificDays, FrequencyInterval, FrequencyWeekly:
		return true
	}
	return false
}

type LogStatus string

const (
	StatusTaken   LogStatus = "taken"
	StatusSkipped LogStatus = "skipped"
	StatusMissed  LogStatus = "missed"
)

func (s LogStatus) Valid() bool {
	switch s {
	case StatusTaken, StatusSkipped, StatusMissed:
		return true
	}
	return false
}

// EventStatus extends LogStatus with the computed "upcoming" state used by
// the timeline projection. A logged status always wins over a computed one.
type EventStatus string

const (
	EventTaken    EventStatus = "taken"
	EventSkipped  EventStatus = "skipped"
	EventMissed   EventStatus = "missed"
	EventUpcoming EventStatus = "upcoming"
)

// Plan is a patient's standing recurring prescription. StartDate and EndDate
// are calendar days truncated to midnight; EndDate nil means open-ended.
// ReminderTimes hold normalized "HH:MM" 24-hour strings, non-empty and
// de-duplicated. Deactivated plans are kept for history (soft delete).
type Plan struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	Name          string
	Dosage        string
	Form          Form
	Frequency     Frequency
	SpecificDays  []int // weekday indexes, 0=Sunday..6=Saturday
	IntervalDays  int   // every N days, for FrequencyInterval
	StartDate     time.Time
	EndDate       *time.Time
	ReminderTimes []string
	Instructions  string
	DoctorNotes   string
	PrescribedBy  *uuid.UUID
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Log records one patient action against one scheduled dose. At most one log
// exists per slot key; re-logging the same slot overwrites status and
// ActionAt instead of creating a second row.
type Log struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	PlanID        uuid.UUID
	Status        LogStatus
	ScheduledDate time.Time // midnight of the day the dose was scheduled for
	ScheduledTime string    // normalized "HH:MM", one of the plan's reminder times
	ActionAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SlotKey identifies one unique dose occurrence.
type SlotKey struct {
	PatientID     uuid.UUID
	PlanID        uuid.UUID
	ScheduledDate time.Time
	ScheduledTime string
}

// DayRange is a half-open [Start, End) interval on local-midnight boundaries.
type DayRange struct {
	Start time.Time
	End   time.Time
}

func (r DayRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Event is one entry of the derived per-day timeline.
type Event struct {
	PlanID       uuid.UUID
	Name         string
	Dosage       string
	Form         Form
	Frequency    Frequency
	ReminderTime string
	ScheduledAt  time.Time
	Status       EventStatus
	LogID        *uuid.UUID
	Instructions string
	DoctorNotes  string
}

// Summary counts timeline events per status. All four keys are always
// present, even when zero.
type Summary struct {
	Taken    int `json:"taken"`
	Skipped  int `json:"skipped"`
	Missed   int `json:"missed"`
	Upcoming int `json:"upcoming"`
}

type Timeline struct {
	Summary  Summary
	Timeline []Event
}
