package api

import (
	"net/http"

	"github.com/gangwaa/NerualAdsV2/internal/core"
)

// ProcessRequest is the body of a process call.
type ProcessRequest struct {
	Input string `json:"input"`
}

// ProcessResponse wraps a stage result with session bookkeeping.
type ProcessResponse struct {
	SessionID core.SessionID `json:"session_id"`
	*core.WorkflowResult
	Progress int         `json:"progress"`
	PlanID   core.PlanID `json:"plan_id,omitempty"`
}

// AdvanceRequest optionally names the stage to move to.
type AdvanceRequest struct {
	Target core.Stage `json:"target,omitempty"`
}

// StatusResponse reports where a session's workflow stands.
type StatusResponse struct {
	SessionID core.SessionID `json:"session_id"`
	core.Status
	PlanID core.PlanID `json:"plan_id,omitempty"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req ProcessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	res, err := sess.Process(r.Context(), req.Input)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ProcessResponse{
		SessionID:      sess.ID,
		WorkflowResult: res,
		Progress:       sess.Status().Progress,
		PlanID:         sess.PlanID(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	respondJSON(w, http.StatusOK, StatusResponse{
		SessionID: sess.ID,
		Status:    sess.Status(),
		PlanID:    sess.PlanID(),
	})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var req AdvanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	if _, err := sess.Advance(r.Context(), req.Target); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.handleStatus(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).Reset()
	s.handleStatus(w, r)
}
