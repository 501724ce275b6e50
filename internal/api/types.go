package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/medtrack/internal/family"
	"github.com/carelink/medtrack/internal/medicine"
)

type CreatePlanRequest struct {
	Name          string   `json:"name"`
	Dosage        string   `json:"dosage"`
	Form          string   `json:"form,omitempty"`
	Frequency     string   `json:"frequency,omitempty"`
	SpecificDays  []int    `json:"specific_days,omitempty"`
	IntervalDays  int      `json:"interval_days,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	ReminderTimes []string `json:"reminder_times"`
	Instructions  string   `json:"instructions,omitempty"`
	DoctorNotes   string   `json:"doctor_notes,omitempty"`
	PrescribedBy  string   `json:"prescribed_by,omitempty"`
}

type UpdatePlanRequest struct {
	Name          *string   `json:"name"`
	Dosage        *string   `json:"dosage"`
	Form          *string   `json:"form"`
	Frequency     *string   `json:"frequency"`
	SpecificDays  *[]int    `json:"specific_days"`
	IntervalDays  *int      `json:"interval_days"`
	StartDate     *string   `json:"start_date"`
	EndDate       *string   `json:"end_date"`
	ReminderTimes *[]string `json:"reminder_times"`
	Instructions  *string   `json:"instructions"`
	DoctorNotes   *string   `json:"doctor_notes"`
}

type PlanResponse struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	Name          string     `json:"name"`
	Dosage        string     `json:"dosage"`
	Form          string     `json:"form"`
	Frequency     string     `json:"frequency"`
	SpecificDays  []int      `json:"specific_days,omitempty"`
	IntervalDays  int        `json:"interval_days,omitempty"`
	StartDate     string     `json:"start_date"`
	EndDate       *string    `json:"end_date,omitempty"`
	ReminderTimes []string   `json:"reminder_times"`
	Instructions  string     `json:"instructions,omitempty"`
	DoctorNotes   string     `json:"doctor_notes,omitempty"`
	PrescribedBy  *uuid.UUID `json:"prescribed_by,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const dateLayout = "2006-01-02"

func toPlanResponse(p medicine.Plan) PlanResponse {
	resp := PlanResponse{
		ID:            p.ID,
		PatientID:     p.PatientID,
		Name:          p.Name,
		Dosage:        p.Dosage,
		Form:          string(p.Form),
		Frequency:     string(p.Frequency),
		SpecificDays:  p.SpecificDays,
		IntervalDays:  p.IntervalDays,
		StartDate:     p.StartDate.Format(dateLayout),
		ReminderTimes: p.ReminderTimes,
		Instructions:  p.Instructions,
		DoctorNotes:   p.DoctorNotes,
		PrescribedBy:  p.PrescribedBy,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.EndDate != nil {
		end := p.EndDate.Format(dateLayout)
		resp.EndDate = &end
	}
	return resp
}

func toPlanResponses(plans []medicine.Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	return out
}

type RecordActionRequest struct {
	PlanID        string `json:"plan_id"`
	Status        string `json:"status"`
	ScheduledDate string `json:"scheduled_date,omitempty"`
	ScheduledTime string `json:"scheduled_time"`
}

type LogResponse struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	PlanID        uuid.UUID `json:"plan_id"`
	Status        string    `json:"status"`
	ScheduledDate string    `json:"scheduled_date"`
	ScheduledTime string    `json:"scheduled_time"`
	ActionAt      time.Time `json:"action_at"`
}

func toLogResponse(l medicine.Log) LogResponse {
	return LogResponse{
		ID:            l.ID,
		PatientID:     l.PatientID,
		PlanID:        l.PlanID,
		Status:        string(l.Status),
		ScheduledDate: l.ScheduledDate.Format(dateLayout),
		ScheduledTime: l.ScheduledTime,
		ActionAt:      l.ActionAt,
	}
}

type EventResponse struct {
	PlanID       uuid.UUID  `json:"plan_id"`
	Name         string     `json:"name"`
	Dosage       string     `json:"dosage"`
	Form         string     `json:"form"`
	Frequency    string     `json:"frequency"`
	ReminderTime string     `json:"reminder_time"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	Status       string     `json:"status"`
	LogID        *uuid.UUID `json:"log_id,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	DoctorNotes  string     `json:"doctor_notes,omitempty"`
}

type TimelineResponse struct {
	Summary  medicine.Summary `json:"summary"`
	Timeline []EventResponse  `json:"timeline"`
}

func toTimelineResponse(tl medicine.Timeline) TimelineResponse {
	events := make([]EventResponse, 0, len(tl.Timeline))
	for _, ev := range tl.Timeline {
		events = append(events, EventResponse{
			PlanID:       ev.PlanID,
			Name:         ev.Name,
			Dosage:       ev.Dosage,
			Form:         string(ev.Form),
			Frequency:    string(ev.Frequency),
			ReminderTime: ev.ReminderTime,
			ScheduledAt:  ev.ScheduledAt,
			Status:       string(ev.Status),
			LogID:        ev.LogID,
			Instructions: ev.Instructions,
			DoctorNotes:  ev.DoctorNotes,
		})
	}
	return TimelineResponse{Summary: tl.Summary, Timeline: events}
}

type SendFamilyRequest struct {
	RecipientID  string `json:"recipient_id"`
	Relationship string `json:"relationship,omitempty"`
}

type RespondFamilyRequest struct {
	Status string `json:"status"` // accepted or rejected
}

type ConnectionResponse struct {
	ID              uuid.UUID `json:"id"`
	RequesterID     uuid.UUID `json:"requester_id"`
	RecipientID     uuid.UUID `json:"recipient_id"`
	Relationship    string    `json:"relationship"`
	Status          string    `json:"status"`
	CanViewMedicine bool      `json:"can_view_medicine"`
	CreatedAt       time.Time `json:"created_at"`
}

func toConnectionResponse(c family.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:              c.ID,
		RequesterID:     c.RequesterID,
		RecipientID:     c.RecipientID,
		Relationship:    c.Relationship,
		Status:          string(c.Status),
		CanViewMedicine: c.CanViewMedicine,
		CreatedAt:       c.CreatedAt,
	}
}

// FamilyMemberResponse shapes an accepted connection as "the other person"
// from the caller's point of view.
type FamilyMemberResponse struct {
	ID           uuid.UUID `json:"id"`
	MemberID     uuid.UUID `json:"member_id"`
	Relationship string    `json:"relationship"`
	Status       string    `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
