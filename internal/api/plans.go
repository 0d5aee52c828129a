package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/export"
	"github.com/gangwaa/NerualAdsV2/internal/core"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	if s.plans == nil {
		respondJSON(w, http.StatusOK, []core.PlanSummary{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	plans, err := s.plans.ListPlans(r.Context(), limit)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if plans == nil {
		plans = []core.PlanSummary{}
	}
	respondJSON(w, http.StatusOK, plans)
}

func (s *Server) loadPlan(w http.ResponseWriter, r *http.Request) (*core.PlanRecord, bool) {
	id := core.PlanID(chi.URLParam(r, "planID"))
	if s.plans == nil {
		s.respondDomainError(w, core.ErrNotFound("plan", string(id)))
		return nil, false
	}
	plan, err := s.plans.GetPlan(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, err)
		return nil, false
	}
	return plan, true
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	if plan, ok := s.loadPlan(w, r); ok {
		respondJSON(w, http.StatusOK, plan)
	}
}

func (s *Server) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, plan); err != nil {
		s.respondDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(plan)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
