package medicine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/carelink/medtrack/internal/redis"
)

// noopLocker runs the critical section directly; single-goroutine tests do
// not need mutual exclusion.
type noopLocker struct{}

func (noopLocker) WithSlotLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// heldLocker simulates a slot whose lock another request currently holds.
type heldLocker struct{}

func (heldLocker) WithSlotLock(context.Context, string, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestService(t *testing.T) (*Service, *MemoryRepository) {
	t.Helper()

	repo := NewMemoryRepository()
	svc := NewService(repo, noopLocker{}, time.UTC)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

func validPlanInput() CreatePlanInput {
	return CreatePlanInput{
		Name:          "Metformin",
		Dosage:        "500 mg",
		Form:          FormTablet,
		Frequency:     FrequencyDaily,
		StartDate:     "2026-03-01",
		ReminderTimes: []string{"8:00 am", "8 pm"},
	}
}

func TestCreatePlan_NormalizesReminderTimes(t *testing.T) {
	svc, _ := newTestService(t)

	in := validPlanInput()
	in.ReminderTimes = []string{"8:00 am", "08:00", "8am", "13pm", "20:15"}

	p, err := svc.CreatePlan(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if len(p.ReminderTimes) != 2 || p.ReminderTimes[0] != "08:00" || p.ReminderTimes[1] != "20:15" {
		t.Errorf("ReminderTimes = %v, want [08:00 20:15]", p.ReminderTimes)
	}
}

func TestCreatePlan_DefaultsFormAndFrequency(t *testing.T) {
	svc, _ := newTestService(t)

	in := validPlanInput()
	in.Form = ""
	in.Frequency = ""

	p, err := svc.CreatePlan(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if p.Form != FormTablet || p.Frequency != FrequencyDaily {
		t.Errorf("defaults = %s/%s, want tablet/daily", p.Form, p.Frequency)
	}
}

func TestCreatePlan_EmptyStartDateMeansToday(t *testing.T) {
	svc, _ := newTestService(t)

	in := validPlanInput()
	in.StartDate = ""

	p, err := svc.CreatePlan(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !p.StartDate.Equal(want) {
		t.Errorf("StartDate = %v, want %v", p.StartDate, want)
	}
}

func TestCreatePlan_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	cases := []struct {
		name   string
		mutate func(*CreatePlanInput)
	}{
		{"missing name", func(in *CreatePlanInput) { in.Name = "" }},
		{"missing dosage", func(in *CreatePlanInput) { in.Dosage = "" }},
		{"unknown form", func(in *CreatePlanInput) { in.Form = "powder" }},
		{"unknown frequency", func(in *CreatePlanInput) { in.Frequency = "hourly" }},
		{"all reminder times invalid", func(in *CreatePlanInput) { in.ReminderTimes = []string{"13pm", "8:61"} }},
		{"no reminder times", func(in *CreatePlanInput) { in.ReminderTimes = nil }},
		{"end before start", func(in *CreatePlanInput) { in.EndDate = "2026-02-01" }},
		{"specific days empty", func(in *CreatePlanInput) {
			in.Frequency = FrequencySpecificDays
			in.SpecificDays = nil
		}},
		{"weekday out of range", func(in *CreatePlanInput) {
			in.Frequency = FrequencySpecificDays
			in.SpecificDays = []int{1, 7}
		}},
		{"interval below one", func(in *CreatePlanInput) {
			in.Frequency = FrequencyInterval
			in.IntervalDays = 0
		}},
	}

	for _, tc := range cases {
		in := validPlanInput()
		tc.mutate(&in)

		if _, err := svc.CreatePlan(ctx, patientID, in); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("%s: error = %v, want ErrInvalidPlan", tc.name, err)
		}
	}
}

func TestCreatePlan_MalformedDate(t *testing.T) {
	svc, _ := newTestService(t)

	in := validPlanInput()
	in.StartDate = "03/15/2026"

	if _, err := svc.CreatePlan(context.Background(), uuid.New(), in); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("error = %v, want ErrInvalidDate", err)
	}
}

func TestGetPlan_ScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	owner := uuid.New()
	p, err := svc.CreatePlan(ctx, owner, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if _, err := svc.GetPlan(ctx, owner, p.ID); err != nil {
		t.Errorf("owner GetPlan: %v", err)
	}
	if _, err := svc.GetPlan(ctx, uuid.New(), p.ID); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("stranger GetPlan error = %v, want ErrPlanNotFound", err)
	}
}

func TestUpdatePlan_PartialUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	dosage := "1000 mg"
	times := []string{"9pm"}
	updated, err := svc.UpdatePlan(ctx, patientID, p.ID, UpdatePlanInput{
		Dosage:        &dosage,
		ReminderTimes: &times,
	})
	if err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}

	if updated.Dosage != "1000 mg" {
		t.Errorf("Dosage = %q", updated.Dosage)
	}
	if len(updated.ReminderTimes) != 1 || updated.ReminderTimes[0] != "21:00" {
		t.Errorf("ReminderTimes = %v, want [21:00]", updated.ReminderTimes)
	}
	if updated.Name != p.Name {
		t.Errorf("Name changed unexpectedly: %q", updated.Name)
	}
}

func TestUpdatePlan_ClearEndDate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	in := validPlanInput()
	in.EndDate = "2026-06-01"
	p, err := svc.CreatePlan(ctx, patientID, in)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if p.EndDate == nil {
		t.Fatal("EndDate not set")
	}

	empty := ""
	updated, err := svc.UpdatePlan(ctx, patientID, p.ID, UpdatePlanInput{EndDate: &empty})
	if err != nil {
		t.Fatalf("UpdatePlan: %v", err)
	}
	if updated.EndDate != nil {
		t.Errorf("EndDate = %v, want nil", updated.EndDate)
	}
}

func TestDeletePlan_DeactivatesAndRemovesLogs(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if _, _, err := svc.RecordAction(ctx, patientID, RecordActionInput{
		PlanID:        p.ID,
		Status:        StatusTaken,
		ScheduledTime: "08:00",
	}); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}

	if err := svc.DeletePlan(ctx, patientID, p.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}

	plans, err := svc.ListPlans(ctx, patientID)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 0 {
		t.Errorf("deactivated plan still listed: %d plans", len(plans))
	}

	day := DayRange{Start: date(2026, 3, 15), End: date(2026, 3, 16)}
	logs, err := repo.ListLogs(ctx, patientID, day)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("logs survived plan deletion: %d", len(logs))
	}
}

func TestDeletePlan_Stranger(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreatePlan(ctx, uuid.New(), validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	if err := svc.DeletePlan(ctx, uuid.New(), p.ID); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("error = %v, want ErrPlanNotFound", err)
	}
}

func TestRecordAction_CreatesThenOverwrites(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	first, created, err := svc.RecordAction(ctx, patientID, RecordActionInput{
		PlanID:        p.ID,
		Status:        StatusTaken,
		ScheduledTime: "8:00 am",
	})
	if err != nil {
		t.Fatalf("first RecordAction: %v", err)
	}
	if !created {
		t.Error("first action should create")
	}
	if first.ScheduledTime != "08:00" {
		t.Errorf("ScheduledTime = %q, want 08:00", first.ScheduledTime)
	}

	second, created, err := svc.RecordAction(ctx, patientID, RecordActionInput{
		PlanID:        p.ID,
		Status:        StatusSkipped,
		ScheduledTime: "08:00",
	})
	if err != nil {
		t.Fatalf("second RecordAction: %v", err)
	}
	if created {
		t.Error("second action should update, not create")
	}
	if second.ID != first.ID {
		t.Error("overwrite produced a new row")
	}
	if second.Status != StatusSkipped {
		t.Errorf("Status = %s, want skipped", second.Status)
	}

	day := DayRange{Start: date(2026, 3, 15), End: date(2026, 3, 16)}
	logs, err := repo.ListLogs(ctx, patientID, day)
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("slot has %d logs, want exactly 1", len(logs))
	}
}

func TestRecordAction_SeparateSlotsSeparateRows(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	for _, tm := range []string{"08:00", "20:00"} {
		if _, _, err := svc.RecordAction(ctx, patientID, RecordActionInput{
			PlanID:        p.ID,
			Status:        StatusTaken,
			ScheduledTime: tm,
		}); err != nil {
			t.Fatalf("RecordAction(%s): %v", tm, err)
		}
	}

	day := DayRange{Start: date(2026, 3, 15), End: date(2026, 3, 16)}
	logs, _ := repo.ListLogs(ctx, patientID, day)
	if len(logs) != 2 {
		t.Errorf("got %d logs, want 2", len(logs))
	}
}

func TestRecordAction_RejectsUnknownTime(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	for _, tm := range []string{"09:00", "13pm", ""} {
		if _, _, err := svc.RecordAction(ctx, patientID, RecordActionInput{
			PlanID:        p.ID,
			Status:        StatusTaken,
			ScheduledTime: tm,
		}); !errors.Is(err, ErrTimeNotInPlan) {
			t.Errorf("time %q: error = %v, want ErrTimeNotInPlan", tm, err)
		}
	}
}

func TestRecordAction_NormalizedVariantHitsSameSlot(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	variants := []string{"8am", "8:00 am", "08:00", "8.00"}
	for _, tm := range variants {
		if _, _, err := svc.RecordAction(ctx, patientID, RecordActionInput{
			PlanID:        p.ID,
			Status:        StatusTaken,
			ScheduledTime: tm,
		}); err != nil {
			t.Fatalf("RecordAction(%q): %v", tm, err)
		}
	}

	day := DayRange{Start: date(2026, 3, 15), End: date(2026, 3, 16)}
	logs, _ := repo.ListLogs(ctx, patientID, day)
	if len(logs) != 1 {
		t.Errorf("variants produced %d rows, want 1", len(logs))
	}
}

func TestRecordAction_InvalidStatus(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.RecordAction(context.Background(), uuid.New(), RecordActionInput{
		PlanID:        uuid.New(),
		Status:        "snoozed",
		ScheduledTime: "08:00",
	})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestRecordAction_UnknownPlan(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.RecordAction(context.Background(), uuid.New(), RecordActionInput{
		PlanID:        uuid.New(),
		Status:        StatusTaken,
		ScheduledTime: "08:00",
	})
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("error = %v, want ErrPlanNotFound", err)
	}
}

func TestRecordAction_LockHeld(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, heldLocker{}, time.UTC)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	ctx := context.Background()
	patientID := uuid.New()
	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	_, _, err = svc.RecordAction(ctx, patientID, RecordActionInput{
		PlanID:        p.ID,
		Status:        StatusTaken,
		ScheduledTime: "08:00",
	})
	if !errors.Is(err, ErrSlotBeingLogged) {
		t.Errorf("error = %v, want ErrSlotBeingLogged", err)
	}
}

// blindSlotRepo pretends the slot is empty on lookup so the service's insert
// collides with the unique-slot check, mimicking a racer that wrote between
// the find and the insert.
type blindSlotRepo struct {
	*MemoryRepository
}

func (r blindSlotRepo) GetLogBySlot(context.Context, SlotKey) (*Log, error) {
	return nil, ErrLogNotFound
}

func TestRecordAction_DuplicateInsertFallsBackToUpdate(t *testing.T) {
	mem := NewMemoryRepository()
	svc := NewService(blindSlotRepo{mem}, noopLocker{}, time.UTC)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	raceWinner := Log{
		ID:            uuid.New(),
		PatientID:     patientID,
		PlanID:        p.ID,
		Status:        StatusMissed,
		ScheduledDate: date(2026, 3, 15),
		ScheduledTime: "08:00",
	}
	if _, err := mem.CreateLog(ctx, raceWinner); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	l, created, err := svc.RecordAction(ctx, patientID, RecordActionInput{
		PlanID:        p.ID,
		Status:        StatusTaken,
		ScheduledTime: "08:00",
	})
	if err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	if created {
		t.Error("collision should resolve as update")
	}
	if l.ID != raceWinner.ID || l.Status != StatusTaken {
		t.Errorf("log = %+v, want existing row with status taken", l)
	}
}

func TestTimeline_ExcludesDeactivatedPlans(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	keep, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	drop, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if err := svc.DeletePlan(ctx, patientID, drop.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}

	tl, err := svc.Timeline(ctx, patientID, "")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}

	for _, ev := range tl.Timeline {
		if ev.PlanID != keep.ID {
			t.Errorf("deactivated plan leaked into timeline: %v", ev.PlanID)
		}
	}
	if len(tl.Timeline) != 2 {
		t.Errorf("got %d events, want 2", len(tl.Timeline))
	}
}

func TestTimeline_RespectsPlanDateBounds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	in := validPlanInput()
	in.StartDate = "2026-03-01"
	in.EndDate = "2026-03-10"
	if _, err := svc.CreatePlan(ctx, patientID, in); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	inside, err := svc.Timeline(ctx, patientID, "2026-03-10")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(inside.Timeline) == 0 {
		t.Error("plan should still contribute on its end date")
	}

	outside, err := svc.Timeline(ctx, patientID, "2026-03-11")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(outside.Timeline) != 0 {
		t.Error("plan contributed past its end date")
	}

	before, err := svc.Timeline(ctx, patientID, "2026-02-28")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(before.Timeline) != 0 {
		t.Error("plan contributed before its start date")
	}
}

func TestTimeline_InvalidDate(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Timeline(context.Background(), uuid.New(), "tomorrow"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("error = %v, want ErrInvalidDate", err)
	}
}

func TestDailyStats_MatchesTimelineSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	p, err := svc.CreatePlan(ctx, patientID, validPlanInput())
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if _, _, err := svc.RecordAction(ctx, patientID, RecordActionInput{
		PlanID:        p.ID,
		Status:        StatusTaken,
		ScheduledTime: "08:00",
	}); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}

	stats, err := svc.DailyStats(ctx, patientID, "")
	if err != nil {
		t.Fatalf("DailyStats: %v", err)
	}

	// 08:00 is logged taken, 20:00 is after the pinned noon clock.
	want := Summary{Taken: 1, Upcoming: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestListTodayPlans_IgnoresRecurrencePattern(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	patientID := uuid.New()

	// Interval plan not due on the pinned day: still listed, since the plain
	// today listing only checks the date interval.
	in := validPlanInput()
	in.Frequency = FrequencyInterval
	in.IntervalDays = 5
	in.StartDate = "2026-03-14"
	if _, err := svc.CreatePlan(ctx, patientID, in); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}

	plans, err := svc.ListTodayPlans(ctx, patientID)
	if err != nil {
		t.Fatalf("ListTodayPlans: %v", err)
	}
	if len(plans) != 1 {
		t.Errorf("got %d plans, want 1", len(plans))
	}

	tl, err := svc.Timeline(ctx, patientID, "")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}
	if len(tl.Timeline) != 0 {
		t.Errorf("timeline should apply recurrence: got %d events", len(tl.Timeline))
	}
}
