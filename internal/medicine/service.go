package medicine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/carelink/medtrack/internal/redis"
)

var (
	ErrInvalidPlan   = errors.New("invalid medicine plan")
	ErrInvalidStatus = errors.New("invalid dose status")

	// ErrTimeNotInPlan rejects logging an action against a slot the plan
	// does not schedule.
	ErrTimeNotInPlan = errors.New("scheduled time does not match any reminder time of the plan")

	ErrSlotBeingLogged = errors.New("dose slot is currently being logged, please retry")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	loc    *time.Location
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:   repo,
		locker: locker,
		loc:    loc,
		now:    time.Now,
	}
}

type CreatePlanInput struct {
	Name          string
	Dosage        string
	Form          Form
	Frequency     Frequency
	SpecificDays  []int
	IntervalDays  int
	StartDate     string // "YYYY-MM-DD", empty = today
	EndDate       string // "YYYY-MM-DD", empty = open-ended
	ReminderTimes []string
	Instructions  string
	DoctorNotes   string
	PrescribedBy  *uuid.UUID
}

func (s *Service) CreatePlan(ctx context.Context, patientID uuid.UUID, in CreatePlanInput) (*Plan, error) {
	now := s.now()

	p := Plan{
		ID:           uuid.New(),
		PatientID:    patientID,
		Name:         in.Name,
		Dosage:       in.Dosage,
		Form:         in.Form,
		Frequency:    in.Frequency,
		SpecificDays: in.SpecificDays,
		IntervalDays: in.IntervalDays,
		Instructions: in.Instructions,
		DoctorNotes:  in.DoctorNotes,
		PrescribedBy: in.PrescribedBy,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if p.Form == "" {
		p.Form = FormTablet
	}
	if p.Frequency == "" {
		p.Frequency = FrequencyDaily
	}

	start, err := s.parseDate(in.StartDate, startOfDay(now.In(s.loc)))
	if err != nil {
		return nil, err
	}
	p.StartDate = start

	if in.EndDate != "" {
		end, err := s.parseDate(in.EndDate, time.Time{})
		if err != nil {
			return nil, err
		}
		p.EndDate = &end
	}

	p.ReminderTimes = NormalizeReminderTimes(in.ReminderTimes)

	if err := validatePlan(p); err != nil {
		return nil, err
	}

	created, err := s.repo.CreatePlan(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return created, nil
}

func (s *Service) GetPlan(ctx context.Context, patientID, planID uuid.UUID) (*Plan, error) {
	p, err := s.repo.GetPlan(ctx, patientID, planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (s *Service) ListPlans(ctx context.Context, patientID uuid.UUID) ([]Plan, error) {
	plans, err := s.repo.ListActivePlans(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// ListTodayPlans lists active plans whose date interval covers today. This is
// the plain listing surface; it intentionally ignores recurrence patterns.
// The timeline is the recurrence-aware view.
func (s *Service) ListTodayPlans(ctx context.Context, patientID uuid.UUID) ([]Plan, error) {
	day, err := ResolveDayRange("", s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	plans, err := s.repo.ListActivePlansOverlapping(ctx, patientID, day)
	if err != nil {
		return nil, fmt.Errorf("list today plans: %w", err)
	}
	return plans, nil
}

type UpdatePlanInput struct {
	Name          *string
	Dosage        *string
	Form          *Form
	Frequency     *Frequency
	SpecificDays  *[]int
	IntervalDays  *int
	StartDate     *string
	EndDate       *string // empty string clears the end date
	ReminderTimes *[]string
	Instructions  *string
	DoctorNotes   *string
}

func (s *Service) UpdatePlan(ctx context.Context, patientID, planID uuid.UUID, in UpdatePlanInput) (*Plan, error) {
	p, err := s.repo.GetPlan(ctx, patientID, planID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Dosage != nil {
		p.Dosage = *in.Dosage
	}
	if in.Form != nil {
		p.Form = *in.Form
	}
	if in.Frequency != nil {
		p.Frequency = *in.Frequency
	}
	if in.SpecificDays != nil {
		p.SpecificDays = *in.SpecificDays
	}
	if in.IntervalDays != nil {
		p.IntervalDays = *in.IntervalDays
	}
	if in.StartDate != nil {
		start, err := s.parseDate(*in.StartDate, time.Time{})
		if err != nil {
			return nil, err
		}
		p.StartDate = start
	}
	if in.EndDate != nil {
		if *in.EndDate == "" {
			p.EndDate = nil
		} else {
			end, err := s.parseDate(*in.EndDate, time.Time{})
			if err != nil {
				return nil, err
			}
			p.EndDate = &end
		}
	}
	if in.ReminderTimes != nil {
		p.ReminderTimes = NormalizeReminderTimes(*in.ReminderTimes)
	}
	if in.Instructions != nil {
		p.Instructions = *in.Instructions
	}
	if in.DoctorNotes != nil {
		p.DoctorNotes = *in.DoctorNotes
	}

	p.UpdatedAt = s.now()

	if err := validatePlan(*p); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdatePlan(ctx, *p)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return updated, nil
}

// DeletePlan soft-deletes: the plan is flagged inactive and its logs are
// removed. The plan row itself stays for history.
func (s *Service) DeletePlan(ctx context.Context, patientID, planID uuid.UUID) error {
	if err := s.repo.DeactivatePlan(ctx, patientID, planID); err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return err
		}
		return fmt.Errorf("deactivate plan: %w", err)
	}

	if err := s.repo.DeleteLogsForPlan(ctx, planID); err != nil {
		return fmt.Errorf("delete plan logs: %w", err)
	}
	return nil
}

// Timeline computes the per-day dose timeline for a patient. An empty date
// means today; a malformed date is ErrInvalidDate.
func (s *Service) Timeline(ctx context.Context, patientID uuid.UUID, date string) (*Timeline, error) {
	day, err := ResolveDayRange(date, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	plans, err := s.repo.ListActivePlansOverlapping(ctx, patientID, day)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}

	logs, err := s.repo.ListLogs(ctx, patientID, day)
	if err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}

	tl := BuildTimeline(plans, logs, day, s.now())
	return &tl, nil
}

// DailyStats returns the adherence counters of the day's timeline.
func (s *Service) DailyStats(ctx context.Context, patientID uuid.UUID, date string) (Summary, error) {
	tl, err := s.Timeline(ctx, patientID, date)
	if err != nil {
		return Summary{}, err
	}
	return tl.Summary, nil
}

type RecordActionInput struct {
	PlanID        uuid.UUID
	Status        LogStatus
	ScheduledDate string // "YYYY-MM-DD", empty = today
	ScheduledTime string // free-form, normalized before matching
}

// RecordAction idempotently records a taken/skipped/missed action against one
// dose slot. Re-logging the same slot overwrites the prior status. The
// find-then-upsert runs under a per-slot lock; a unique violation on create
// still falls back to an update, so the DB index is a backstop rather than
// control flow.
func (s *Service) RecordAction(ctx context.Context, patientID uuid.UUID, in RecordActionInput) (*Log, bool, error) {
	if !in.Status.Valid() {
		return nil, false, ErrInvalidStatus
	}

	plan, err := s.repo.GetPlan(ctx, patientID, in.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("load plan: %w", err)
	}

	norm, ok := NormalizeReminderTime(in.ScheduledTime)
	if !ok {
		return nil, false, ErrTimeNotInPlan
	}
	if !containsTime(plan.ReminderTimes, norm) {
		return nil, false, ErrTimeNotInPlan
	}

	day, err := ResolveDayRange(in.ScheduledDate, s.now(), s.loc)
	if err != nil {
		return nil, false, err
	}

	key := SlotKey{
		PatientID:     patientID,
		PlanID:        plan.ID,
		ScheduledDate: day.Start,
		ScheduledTime: norm,
	}

	var (
		result  *Log
		created bool
	)

	err = s.locker.WithSlotLock(ctx, slotLockKey(key), func(lockCtx context.Context) error {
		existing, err := s.repo.GetLogBySlot(lockCtx, key)
		if err != nil && !errors.Is(err, ErrLogNotFound) {
			return fmt.Errorf("check existing log: %w", err)
		}

		if existing != nil {
			updated, err := s.repo.UpdateLogStatus(lockCtx, key, in.Status, s.now())
			if err != nil {
				return fmt.Errorf("update log: %w", err)
			}
			result = updated
			return nil
		}

		l := Log{
			ID:            uuid.New(),
			PatientID:     patientID,
			PlanID:        plan.ID,
			Status:        in.Status,
			ScheduledDate: day.Start,
			ScheduledTime: norm,
			ActionAt:      s.now(),
		}

		inserted, err := s.repo.CreateLog(lockCtx, l)
		if err != nil {
			if errors.Is(err, ErrDuplicateLog) {
				// Lost a race despite the lock (e.g. lock expiry); the
				// unique index caught it, so finish as an update.
				updated, uerr := s.repo.UpdateLogStatus(lockCtx, key, in.Status, s.now())
				if uerr != nil {
					return fmt.Errorf("update log after duplicate: %w", uerr)
				}
				result = updated
				return nil
			}
			return fmt.Errorf("create log: %w", err)
		}

		result = inserted
		created = true
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, false, ErrSlotBeingLogged
		}
		return nil, false, err
	}

	return result, created, nil
}

func (s *Service) parseDate(date string, fallback time.Time) (time.Time, error) {
	if date == "" {
		if fallback.IsZero() {
			return time.Time{}, ErrInvalidDate
		}
		return fallback, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

func validatePlan(p Plan) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if p.Dosage == "" {
		return fmt.Errorf("%w: dosage is required", ErrInvalidPlan)
	}
	if !p.Form.Valid() {
		return fmt.Errorf("%w: unknown form %q", ErrInvalidPlan, p.Form)
	}
	if !p.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPlan, p.Frequency)
	}
	if len(p.ReminderTimes) == 0 {
		return fmt.Errorf("%w: at least one valid reminder time is required", ErrInvalidPlan)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidPlan)
	}

	switch p.Frequency {
	case FrequencySpecificDays:
		if len(p.SpecificDays) == 0 {
			return fmt.Errorf("%w: specific_days requires at least one weekday", ErrInvalidPlan)
		}
		for _, d := range p.SpecificDays {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidPlan, d)
			}
		}
	case FrequencyInterval:
		if p.IntervalDays < 1 {
			return fmt.Errorf("%w: interval requires a day count of at least 1", ErrInvalidPlan)
		}
	}

	return nil
}

func containsTime(times []string, t string) bool {
	for _, v := range times {
		if v == t {
			return true
		}
	}
	return false
}

func slotLockKey(k SlotKey) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		k.PatientID, k.PlanID, k.ScheduledDate.Format(dateLayout), k.ScheduledTime)
}
