package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/essexfb/backend/adminauth"
	"github.com/essexfb/backend/httpjson"
	"github.com/essexfb/backend/logger"
)

func adminTokenFor(session *adminauth.Session, jwtKey []byte) (string, error) {
	token, err := adminauth.IssueToken(session, jwtKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return token, nil
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Password string `json:"password"`
	}

	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	session, err := s.guard.Login(r.Context(), request.Password)
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	token, err := adminTokenFor(session, s.jwtKey)
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	httpjson.WriteSuccessJson(w, map[string]any{
		"token":     token,
		"expiresAt": session.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) adminLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.guard.Logout(r.Context()); err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}
	httpjson.WriteSuccessJson(w, map[string]any{"loggedOut": true})
}

func (s *Server) adminExtend(w http.ResponseWriter, r *http.Request) {
	session, err := s.guard.Extend(r.Context())
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}
	if session == nil {
		httpjson.WriteSuccessJson(w, map[string]any{"valid": false})
		return
	}
	httpjson.WriteSuccessJson(w, map[string]any{
		"valid":     true,
		"expiresAt": session.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) adminSession(w http.ResponseWriter, r *http.Request) {
	session := s.guard.Current(r.Context())
	if session == nil {
		httpjson.WriteSuccessJson(w, map[string]any{"valid": false})
		return
	}
	httpjson.WriteSuccessJson(w, map[string]any{
		"valid":     true,
		"expiresAt": session.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	subs, err := s.store.List(r.Context())
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	stats := map[string]any{"count": len(subs)}
	if len(subs) > 0 {
		stats["lastSubmittedAt"] = subs[len(subs)-1].SubmittedAt.Format(time.RFC3339)
	}

	s.touchSession(r)
	httpjson.WriteSuccessJson(w, stats)
}

func (s *Server) adminSubmissions(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var err error
	var subs any
	if limit > 0 {
		subs, err = s.store.Recent(r.Context(), limit)
	} else {
		subs, err = s.store.List(r.Context())
	}
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	s.touchSession(r)
	httpjson.WriteSuccessJson(w, subs)
}
