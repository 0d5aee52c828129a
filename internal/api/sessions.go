package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/service"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *service.Session {
	s, _ := ctx.Value(sessionKey{}).(*service.Session)
	return s
}

// headerSession resolves the session from SessionHeader, creating one when
// the header is absent or names an unknown session. The ID is echoed back.
func (s *Server) headerSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := core.SessionID(r.Header.Get(SessionHeader))
		sess, created, err := s.sessions.GetOrCreate(id)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		if created {
			s.logger.Info("session started", "session_id", sess.ID)
		}
		w.Header().Set(SessionHeader, string(sess.ID))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

// pathSession resolves an existing session from the URL.
func (s *Server) pathSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(core.SessionID(chi.URLParam(r, "sessionID")))
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		w.Header().Set(SessionHeader, string(sess.ID))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	w.Header().Set(SessionHeader, string(sess.ID))
	respondJSON(w, http.StatusCreated, sess.Info())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionFrom(r.Context()).Info())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(sessionFrom(r.Context()).ID)
	w.WriteHeader(http.StatusNoContent)
}
