package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/visit"
)

type visitRequest struct {
	VisitDate string `json:"visit_date" validate:"required"`
}

// apiRequestVisit records a tenant's pending visit request for a property.
func (s *Server) apiRequestVisit(w http.ResponseWriter, r *http.Request, propertyID int64) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req visitRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	when, err := parseTime(req.VisitDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	v, err := s.visits.Create(r.Context(), propertyID, p, when)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusCreated)
}

// handleAPIVisits routes /api/visits requests.
func (s *Server) handleAPIVisits(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/visits"), "/")

	if path == "" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiListVisits(w, r)
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/api/visits")
	if !ok {
		apiError(w, "invalid visit ID", http.StatusBadRequest)
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		s.apiGetVisit(w, r, id)
	case rest == "" && r.Method == http.MethodDelete:
		s.apiApplyVisit(w, r, id, visit.ActionDelete)
	case rest == "":
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	case r.Method != http.MethodPost:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	default:
		action := visit.Action(rest)
		if !action.IsValid() || action == visit.ActionDelete {
			apiError(w, "not found", http.StatusNotFound)
			return
		}
		s.apiApplyVisit(w, r, id, action)
	}
}

func (s *Server) apiGetVisit(w http.ResponseWriter, r *http.Request, id int64) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	v, err := s.visits.Get(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// apiApplyVisit performs a lifecycle action. Deletes answer 204.
func (s *Server) apiApplyVisit(w http.ResponseWriter, r *http.Request, id int64, action visit.Action) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	v, err := s.visits.Apply(r.Context(), id, p, action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if action == visit.ActionDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	apiJSON(w, v, http.StatusOK)
}

func (s *Server) apiListVisits(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	f, err := visitFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.visits.List(r.Context(), p, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

// visitFilter reads status, property_id, from and to query parameters.
func visitFilter(r *http.Request) (visit.ListFilter, error) {
	var f visit.ListFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		st := visit.Status(strings.ToLower(raw))
		if !st.IsValid() {
			return f, apperr.Validation("unknown status " + raw)
		}
		f.Status = &st
	}

	propertyID, err := queryInt64(r, "property_id")
	if err != nil {
		return f, err
	}
	f.PropertyID = propertyID

	for _, bound := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		t, err := parseTime(raw)
		if err != nil {
			return f, err
		}
		// A bare date as the upper bound covers the whole day.
		if bound.name == "to" && len(strings.TrimSpace(raw)) == len(dateLayout) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		*bound.dst = &t
	}

	return f, nil
}
