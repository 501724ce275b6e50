package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelink/medtrack/internal/family"
)

func sendFamilyRequestHandler(svc *family.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		var req SendFamilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		recipientID, err := uuid.Parse(req.RecipientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_recipient_id", "recipient_id must be a valid UUID")
			return
		}

		conn, err := svc.SendRequest(r.Context(), callerID, recipientID, req.Relationship)
		if err != nil {
			handleFamilyError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toConnectionResponse(*conn))
	}
}

func respondFamilyRequestHandler(svc *family.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_id", "id must be a valid UUID")
			return
		}

		var req RespondFamilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		conn, err := svc.Respond(r.Context(), callerID, requestID, family.Status(req.Status))
		if err != nil {
			handleFamilyError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toConnectionResponse(*conn))
	}
}

func listFamilyMembersHandler(svc *family.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		connections, err := svc.ListMembers(r.Context(), callerID)
		if err != nil {
			handleFamilyError(w, err)
			return
		}

		members := make([]FamilyMemberResponse, 0, len(connections))
		for _, c := range connections {
			members = append(members, FamilyMemberResponse{
				ID:           c.ID,
				MemberID:     c.Other(callerID),
				Relationship: c.Relationship,
				Status:       string(c.Status),
			})
		}

		writeJSON(w, http.StatusOK, members)
	}
}

func listIncomingFamilyRequestsHandler(svc *family.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		requests, err := svc.ListIncoming(r.Context(), callerID)
		if err != nil {
			handleFamilyError(w, err)
			return
		}

		out := make([]ConnectionResponse, 0, len(requests))
		for _, c := range requests {
			out = append(out, toConnectionResponse(c))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func removeFamilyMemberHandler(svc *family.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := CallerID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no authenticated caller")
			return
		}

		connectionID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_connection_id", "id must be a valid UUID")
			return
		}

		if err := svc.Remove(r.Context(), callerID, connectionID); err != nil {
			handleFamilyError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleFamilyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, family.ErrSelfConnection):
		writeError(w, http.StatusBadRequest, "self_connection", err.Error())
	case errors.Is(err, family.ErrAlreadyRequested):
		writeError(w, http.StatusBadRequest, "already_requested", err.Error())
	case errors.Is(err, family.ErrInvalidResponse):
		writeError(w, http.StatusBadRequest, "invalid_response", err.Error())
	case errors.Is(err, family.ErrConnectionNotFound):
		writeError(w, http.StatusNotFound, "connection_not_found", err.Error())
	case errors.Is(err, family.ErrNotRecipient),
		errors.Is(err, family.ErrNotParticipant),
		errors.Is(err, family.ErrNotConnected):
		writeError(w, http.StatusForbidden, "not_authorized", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
