package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/auth"
	"github.com/evcraddock/rentwise/internal/property"
)

type meResponse struct {
	User                *auth.User `json:"user"`
	PollIntervalSeconds int        `json:"poll_interval_seconds"`
}

// handleMe returns the caller's account and the client poll interval.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}

	u, err := s.users.GetByID(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	apiJSON(w, meResponse{User: u, PollIntervalSeconds: int(s.opts.PollInterval.Seconds())}, http.StatusOK)
}

// handleDashboard returns the caller's badge counts.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}

	sum, err := s.dashboard.Summary(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, sum, http.StatusOK)
}

// handleAPIProperties routes /api/properties requests.
func (s *Server) handleAPIProperties(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/properties")

	// /api/properties
	if path == "" || path == "/" {
		switch r.Method {
		case http.MethodGet:
			s.apiListProperties(w, r)
		case http.MethodPost:
			s.apiAddProperty(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/api/properties")
	if !ok {
		apiError(w, "invalid property ID", http.StatusBadRequest)
		return
	}

	switch rest {
	case "":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiGetProperty(w, r, id)
	case "messages":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiMessageProperty(w, r, id)
	case "visits":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiRequestVisit(w, r, id)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// apiListProperties lists the calling owner's properties.
func (s *Server) apiListProperties(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsOwner() {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	props, err := s.propRepo.ListByOwner(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if props == nil {
		props = []*property.Property{}
	}
	apiJSON(w, props, http.StatusOK)
}

type addPropertyRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
	Price   *int64 `json:"price" validate:"omitempty,gte=0"`
}

// apiAddProperty lists a new property owned by the caller.
func (s *Server) apiAddProperty(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if !p.IsOwner() {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}

	var req addPropertyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	prop, err := s.propRepo.Insert(r.Context(), &property.Property{
		OwnerID: p.ID,
		Title:   req.Title,
		Address: req.Address,
		Price:   req.Price,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, prop, http.StatusCreated)
}

func (s *Server) apiGetProperty(w http.ResponseWriter, r *http.Request, id int64) {
	prop, err := s.propRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apiError(w, "property not found", http.StatusNotFound)
			return
		}
		writeError(w, r, err)
		return
	}
	apiJSON(w, prop, http.StatusOK)
}
