package medicine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and dev mode.
type MemoryRepository struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]Plan
	logs  map[uuid.UUID]Log
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		plans: make(map[uuid.UUID]Plan),
		logs:  make(map[uuid.UUID]Log),
	}
}

func (r *MemoryRepository) CreatePlan(_ context.Context, p Plan) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	r.plans[p.ID] = p

	out := p
	return &out, nil
}

func (r *MemoryRepository) GetPlan(_ context.Context, patientID, planID uuid.UUID) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[planID]
	if !ok || p.PatientID != patientID {
		return nil, ErrPlanNotFound
	}

	out := p
	return &out, nil
}

func (r *MemoryRepository) ListActivePlans(_ context.Context, patientID uuid.UUID) ([]Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Plan
	for _, p := range r.plans {
		if p.PatientID == patientID && p.IsActive {
			result = append(result, p)
		}
	}

	sortPlansNewestFirst(result)
	return result, nil
}

func (r *MemoryRepository) ListActivePlansOverlapping(_ context.Context, patientID uuid.UUID, day DayRange) ([]Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Plan
	for _, p := range r.plans {
		if p.PatientID != patientID || !p.IsActive {
			continue
		}
		if !p.StartDate.Before(day.End) {
			continue
		}
		if p.EndDate != nil && p.EndDate.Before(day.Start) {
			continue
		}
		result = append(result, p)
	}

	sortPlansNewestFirst(result)
	return result, nil
}

func (r *MemoryRepository) UpdatePlan(_ context.Context, p Plan) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.plans[p.ID]
	if !ok || existing.PatientID != p.PatientID {
		return nil, ErrPlanNotFound
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	r.plans[p.ID] = p

	out := p
	return &out, nil
}

func (r *MemoryRepository) DeactivatePlan(_ context.Context, patientID, planID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[planID]
	if !ok || p.PatientID != patientID {
		return ErrPlanNotFound
	}

	p.IsActive = false
	p.UpdatedAt = time.Now()
	r.plans[planID] = p
	return nil
}

func (r *MemoryRepository) DeleteLogsForPlan(_ context.Context, planID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, l := range r.logs {
		if l.PlanID == planID {
			delete(r.logs, id)
		}
	}
	return nil
}

func (r *MemoryRepository) ListLogs(_ context.Context, patientID uuid.UUID, day DayRange) ([]Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Log
	for _, l := range r.logs {
		if l.PatientID == patientID && day.Contains(l.ScheduledDate) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *MemoryRepository) GetLogBySlot(_ context.Context, key SlotKey) (*Log, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.findSlot(key)
	if !ok {
		return nil, ErrLogNotFound
	}

	out := l
	return &out, nil
}

func (r *MemoryRepository) CreateLog(_ context.Context, l Log) (*Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := SlotKey{
		PatientID:     l.PatientID,
		PlanID:        l.PlanID,
		ScheduledDate: l.ScheduledDate,
		ScheduledTime: l.ScheduledTime,
	}
	if _, exists := r.findSlot(key); exists {
		return nil, ErrDuplicateLog
	}

	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	r.logs[l.ID] = l

	out := l
	return &out, nil
}

func (r *MemoryRepository) UpdateLogStatus(_ context.Context, key SlotKey, status LogStatus, actionAt time.Time) (*Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.findSlot(key)
	if !ok {
		return nil, ErrLogNotFound
	}

	l.Status = status
	l.ActionAt = actionAt
	l.UpdatedAt = time.Now()
	r.logs[l.ID] = l

	out := l
	return &out, nil
}

// findSlot must be called with the lock held.
func (r *MemoryRepository) findSlot(key SlotKey) (Log, bool) {
	for _, l := range r.logs {
		if l.PatientID == key.PatientID &&
			l.PlanID == key.PlanID &&
			l.ScheduledDate.Equal(key.ScheduledDate) &&
			l.ScheduledTime == key.ScheduledTime {
			return l, true
		}
	}
	return Log{}, false
}

func sortPlansNewestFirst(plans []Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
}
