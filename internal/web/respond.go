package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/identity"
	"github.com/evcraddock/rentwise/internal/logging"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// writeError maps a store error onto a status code and a caller-safe message.
// Unexpected errors are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFoundOrUnauthorized):
		apiError(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrNotFound):
		apiError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrUnauthorized):
		apiError(w, "not authorized", http.StatusForbidden)
	case errors.Is(err, apperr.ErrValidation):
		apiError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrIllegalTransition):
		apiError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperr.ErrConflict):
		apiError(w, "concurrent update, try again", http.StatusConflict)
	case errors.Is(err, apperr.ErrUnauthenticated):
		apiError(w, "authorization required", http.StatusUnauthorized)
	default:
		logging.FromContext(r.Context()).Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
	}
}

// principal returns the caller resolved by the auth middleware, writing 401 if absent.
func principal(w http.ResponseWriter, r *http.Request) (identity.Principal, bool) {
	p, ok := identity.FromContext(r.Context())
	if !ok {
		apiError(w, "authorization required", http.StatusUnauthorized)
		return identity.Principal{}, false
	}
	return p, true
}

// decodeJSON reads a JSON body into dst and validates its struct tags.
// On failure it writes a 400 and returns false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		apiError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

// validationMessage turns validator errors into "field is required" style text.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

// timeLayouts are accepted for visit dates and date filters, tried in order.
// Layouts without a zone are read as UTC.
var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", dateLayout}

const dateLayout = "2006-01-02"

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.Validation(fmt.Sprintf("invalid date %q (use RFC 3339 or YYYY-MM-DDTHH:MM)", s))
}

// queryInt64 parses an optional positive integer query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := parseID(raw)
	if err != nil {
		return nil, apperr.Validation(name + " must be a positive integer")
	}
	return &id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation(name + " must be true or false")
	}
	return v, nil
}
