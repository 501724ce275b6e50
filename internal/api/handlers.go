package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelink/medtrack/internal/family"
	"github.com/carelink/medtrack/internal/medicine"
)

func createPlanHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		var req CreatePlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := medicine.CreatePlanInput{
			Name:          req.Name,
			Dosage:        req.Dosage,
			Form:          medicine.Form(req.Form),
			Frequency:     medicine.Frequency(req.Frequency),
			SpecificDays:  req.SpecificDays,
			IntervalDays:  req.IntervalDays,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			ReminderTimes: req.ReminderTimes,
			Instructions:  req.Instructions,
			DoctorNotes:   req.DoctorNotes,
		}

		if req.PrescribedBy != "" {
			doctorID, err := uuid.Parse(req.PrescribedBy)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_prescriber_id", "prescribed_by must be a valid UUID")
				return
			}
			in.PrescribedBy = &doctorID
		}

		plan, err := svc.CreatePlan(r.Context(), callerID, in)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPlanResponse(*plan))
	}
}

func listPlansHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		plans, err := svc.ListPlans(r.Context(), callerID)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPlanResponses(plans))
	}
}

func todayPlansHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		plans, err := svc.ListTodayPlans(r.Context(), callerID)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPlanResponses(plans))
	}
}

func getPlanHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		planID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "id must be a valid UUID")
			return
		}

		plan, err := svc.GetPlan(r.Context(), callerID, planID)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPlanResponse(*plan))
	}
}

func updatePlanHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		planID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "id must be a valid UUID")
			return
		}

		var req UpdatePlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		in := medicine.UpdatePlanInput{
			Name:          req.Name,
			Dosage:        req.Dosage,
			SpecificDays:  req.SpecificDays,
			IntervalDays:  req.IntervalDays,
			StartDate:     req.StartDate,
			EndDate:       req.EndDate,
			ReminderTimes: req.ReminderTimes,
			Instructions:  req.Instructions,
			DoctorNotes:   req.DoctorNotes,
		}
		if req.Form != nil {
			form := medicine.Form(*req.Form)
			in.Form = &form
		}
		if req.Frequency != nil {
			freq := medicine.Frequency(*req.Frequency)
			in.Frequency = &freq
		}

		plan, err := svc.UpdatePlan(r.Context(), callerID, planID, in)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPlanResponse(*plan))
	}
}

func deletePlanHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		planID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeletePlan(r.Context(), callerID, planID); err != nil {
			handleMedicineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func timelineHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		tl, err := svc.Timeline(r.Context(), callerID, r.URL.Query().Get("date"))
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toTimelineResponse(*tl))
	}
}

func familyPlansHandler(svc *medicine.Service, familySvc *family.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, memberID, ok := familyMemberTarget(w, r)
		if !ok {
			return
		}

		if err := familySvc.Authorize(r.Context(), callerID, memberID); err != nil {
			handleFamilyError(w, err)
			return
		}

		plans, err := svc.ListPlans(r.Context(), memberID)
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPlanResponses(plans))
	}
}

func familyTimelineHandler(svc *medicine.Service, familySvc *family.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, memberID, ok := familyMemberTarget(w, r)
		if !ok {
			return
		}

		if err := familySvc.Authorize(r.Context(), callerID, memberID); err != nil {
			handleFamilyError(w, err)
			return
		}

		tl, err := svc.Timeline(r.Context(), memberID, r.URL.Query().Get("date"))
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toTimelineResponse(*tl))
	}
}

func recordActionHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		var req RecordActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		planID, err := uuid.Parse(req.PlanID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_plan_id", "plan_id must be a valid UUID")
			return
		}

		log, created, err := svc.RecordAction(r.Context(), callerID, medicine.RecordActionInput{
			PlanID:        planID,
			Status:        medicine.LogStatus(req.Status),
			ScheduledDate: req.ScheduledDate,
			ScheduledTime: req.ScheduledTime,
		})
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		writeJSON(w, status, toLogResponse(*log))
	}
}

func dailyStatsHandler(svc *medicine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		stats, err := svc.DailyStats(r.Context(), callerID, r.URL.Query().Get("date"))
		if err != nil {
			handleMedicineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func familyMemberTarget(w http.ResponseWriter, r *http.Request) (callerID, memberID uuid.UUID, ok bool) {
	callerID, hasCaller := CallerID(r.Context())
	if !hasCaller {
		writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
		return uuid.Nil, uuid.Nil, false
	}

	memberID, err := uuid.Parse(chi.URLParam(r, "memberId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_member_id", "memberId must be a valid UUID")
		return uuid.Nil, uuid.Nil, false
	}

	return callerID, memberID, true
}

func handleMedicineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, medicine.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, medicine.ErrInvalidPlan):
		writeError(w, http.StatusBadRequest, "invalid_plan", err.Error())
	case errors.Is(err, medicine.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", "status must be taken, skipped, or missed")
	case errors.Is(err, medicine.ErrTimeNotInPlan):
		writeError(w, http.StatusBadRequest, "time_not_in_plan", err.Error())
	case errors.Is(err, medicine.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "plan_not_found", err.Error())
	case errors.Is(err, medicine.ErrSlotBeingLogged):
		writeError(w, http.StatusConflict, "slot_being_logged", "this dose is being logged, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
