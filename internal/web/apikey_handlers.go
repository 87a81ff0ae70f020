package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/rentwise/internal/auth"
)

type apiKeyCreateRequest struct {
	Name string `json:"name" validate:"max=100"`
}

type apiKeyCreateResponse struct {
	Key    string       `json:"key"` // raw key, shown once
	APIKey *auth.APIKey `json:"api_key"`
}

// handleAPIKeys routes /api/keys and /api/keys/{id}. Callers manage only their own keys.
func (s *Server) handleAPIKeys(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/keys"), "/")

	// /api/keys (no trailing path)
	if path == "" {
		switch r.Method {
		case http.MethodGet:
			s.handleListKeys(w, r)
		case http.MethodPost:
			s.handleCreateKey(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// /api/keys/{id}
	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, err := parseID(path)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	s.handleDeleteKey(w, r, id)
}

// handleCreateKey generates a new API key for the caller.
func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req apiKeyCreateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	rawKey, key, err := s.apiKeys.Create(r.Context(), p.ID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKey: key}, http.StatusCreated)
}

// handleListKeys returns the caller's API keys without raw values.
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	keys, err := s.apiKeys.List(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if keys == nil {
		keys = []auth.APIKey{}
	}
	apiJSON(w, keys, http.StatusOK)
}

// handleDeleteKey revokes one of the caller's API keys.
func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request, id int64) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	if err := s.apiKeys.Delete(r.Context(), id, p.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
