package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/core"
)

func (s *Server) handleSearchSegments(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil || s.catalog.Segments == nil {
		respondJSON(w, http.StatusOK, []catalog.Segment{})
		return
	}
	segments, err := s.catalog.Segments.Search(r.URL.Query().Get("q"))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if segments == nil {
		segments = []catalog.Segment{}
	}
	respondJSON(w, http.StatusOK, segments)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "advertiserID")
	if s.catalog == nil || s.catalog.Preferences == nil {
		s.respondDomainError(w, core.ErrNotFound("preferences", id))
		return
	}
	prefs, err := s.catalog.Preferences.Get(id)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleLookupAdvertiser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if s.catalog == nil || s.catalog.Advertisers == nil {
		s.respondDomainError(w, core.ErrNotFound("advertiser", name))
		return
	}
	rec, ok := s.catalog.Advertisers.Lookup(name)
	if !ok {
		s.respondDomainError(w, core.ErrNotFound("advertiser", name))
		return
	}
	respondJSON(w, http.StatusOK, rec)
}
