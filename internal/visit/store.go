package visit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/db"
	"github.com/evcraddock/rentwise/internal/identity"
	"github.com/evcraddock/rentwise/internal/metrics"
	"github.com/evcraddock/rentwise/internal/property"
)

// errLostRace means a compare-and-swap write matched no row because another
// writer changed the status first.
var errLostRace = errors.New("visit request changed concurrently")

// PropertyDirectory looks up the property a visit is for.
type PropertyDirectory interface {
	GetByID(ctx context.Context, id int64) (*property.Property, error)
}

// Store provides visit request persistence and transitions in SQLite.
type Store struct {
	db         *sql.DB
	properties PropertyDirectory
	now        func() time.Time
}

// NewStore creates a visit request store.
func NewStore(db *sql.DB, properties PropertyDirectory) *Store {
	return &Store{
		db:         db,
		properties: properties,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

const selectColumns = `v.id, v.property_id, pr.title, v.user_id, v.visit_date, v.status, v.created_at, v.canceled_at`

// Create records a pending request by tenant to visit propertyID at visitDate.
// Requests are not deduplicated.
func (s *Store) Create(ctx context.Context, propertyID int64, tenant identity.Principal, visitDate time.Time) (*Request, error) {
	if !tenant.IsTenant() {
		return nil, fmt.Errorf("requesting visit: %w", apperr.ErrUnauthorized)
	}
	if visitDate.IsZero() {
		return nil, apperr.Validation("visit date is required")
	}

	prop, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("looking up property: %w", err)
	}

	now := s.now()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO visit_requests (property_id, user_id, visit_date, status, created_at) VALUES (?, ?, ?, ?, ?)",
		prop.ID, tenant.ID, visitDate.UTC(), string(StatusPending), now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting visit request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	metrics.VisitRequestsCreated.Inc()

	return &Request{
		ID:            id,
		PropertyID:    prop.ID,
		PropertyTitle: prop.Title,
		UserID:        tenant.ID,
		VisitDate:     visitDate.UTC(),
		Status:        StatusPending,
		CreatedAt:     now,
	}, nil
}

// load returns a request and the owner of its property.
func (s *Store) load(ctx context.Context, id int64) (*Request, int64, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+", pr.owner_id FROM visit_requests v JOIN properties pr ON pr.id = v.property_id WHERE v.id = ?",
		id,
	)

	var ownerID int64
	req, err := scanRequest(row, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, apperr.ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, 0, fmt.Errorf("querying visit request %d: %w", id, err)
	}
	return req, ownerID, nil
}

// partyOf derives the actor's relation to a request from both the role and the
// record: an owner must own the property, a tenant must be the requester.
func partyOf(req *Request, ownerID int64, actor identity.Principal) (Party, bool) {
	switch {
	case actor.IsOwner() && actor.ID == ownerID:
		return PartyOwner, true
	case actor.IsTenant() && actor.ID == req.UserID:
		return PartyTenant, true
	}
	return 0, false
}

// Get returns a request the actor is a party to. Missing records and records
// the actor may not see return the same apperr.ErrNotFoundOrUnauthorized.
func (s *Store) Get(ctx context.Context, id int64, actor identity.Principal) (*Request, error) {
	req, ownerID, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := partyOf(req, ownerID, actor); !ok {
		return nil, apperr.ErrNotFoundOrUnauthorized
	}
	return req, nil
}

// Apply performs action on request id as actor and returns the updated
// request, or nil after a delete. The legality check and the write form one
// compare-and-swap on status; losing a race retries once, and losing twice
// returns apperr.ErrConflict.
func (s *Store) Apply(ctx context.Context, id int64, actor identity.Principal, action Action) (*Request, error) {
	if !action.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown action %q", action))
	}

	for attempt := 0; attempt < 2; attempt++ {
		req, err := s.apply(ctx, id, actor, action)
		if errors.Is(err, errLostRace) || db.IsConflict(err) {
			continue
		}
		switch {
		case err == nil:
			metrics.RecordTransition(string(action), metrics.ResultApplied)
		case errors.Is(err, apperr.ErrIllegalTransition), errors.Is(err, apperr.ErrNotFound):
			metrics.RecordTransition(string(action), metrics.ResultRejected)
		}
		return req, err
	}

	metrics.RecordTransition(string(action), metrics.ResultConflict)
	return nil, fmt.Errorf("visit request %d: %w", id, apperr.ErrConflict)
}

func (s *Store) apply(ctx context.Context, id int64, actor identity.Principal, action Action) (*Request, error) {
	req, ownerID, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	party, ok := partyOf(req, ownerID, actor)
	if !ok {
		return nil, apperr.ErrNotFoundOrUnauthorized
	}

	to, err := Transition(req.Status, action, party)
	if err != nil {
		return nil, err
	}

	var result sql.Result
	switch {
	case action == ActionDelete:
		result, err = s.db.ExecContext(ctx,
			"DELETE FROM visit_requests WHERE id = ? AND status = ?",
			id, string(req.Status),
		)
	case to == StatusCanceled:
		now := s.now()
		result, err = s.db.ExecContext(ctx,
			"UPDATE visit_requests SET status = ?, canceled_at = ? WHERE id = ? AND status = ?",
			string(to), now, id, string(req.Status),
		)
		req.CanceledAt = &now
	default:
		result, err = s.db.ExecContext(ctx,
			"UPDATE visit_requests SET status = ? WHERE id = ? AND status = ?",
			string(to), id, string(req.Status),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("applying %s to visit request %d: %w", action, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, errLostRace
	}

	if action == ActionDelete {
		return nil, nil
	}
	req.Status = to
	return req, nil
}

// scope returns the condition restricting a listing to p's requests.
func scope(p identity.Principal) (string, []interface{}, error) {
	switch p.Role {
	case identity.RoleOwner:
		return "pr.owner_id = ?", []interface{}{p.ID}, nil
	case identity.RoleTenant:
		return "v.user_id = ?", []interface{}{p.ID}, nil
	}
	return "", nil, fmt.Errorf("role %q: %w", p.Role, apperr.ErrUnauthorized)
}

// conditions builds the WHERE clause for p's scope and f. The status filter
// is only applied when withStatus is set.
func conditions(p identity.Principal, f ListFilter, withStatus bool) (string, []interface{}, error) {
	cond, args, err := scope(p)
	if err != nil {
		return "", nil, err
	}
	where := []string{cond}

	if withStatus && f.Status != nil {
		where = append(where, "v.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.PropertyID != nil {
		where = append(where, "v.property_id = ?")
		args = append(args, *f.PropertyID)
	}
	if f.From != nil {
		where = append(where, "v.visit_date >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "v.visit_date <= ?")
		args = append(args, f.To.UTC())
	}

	return " WHERE " + strings.Join(where, " AND "), args, nil
}

// List returns p's visit requests matching f, latest visit date first, with
// per-status counts over the same filter minus its status.
func (s *Store) List(ctx context.Context, p identity.Principal, f ListFilter) (res *ListResult, err error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("invalid status %q", *f.Status))
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, apperr.Validation("date range end is before its start")
	}

	where, args, err := conditions(p, f, true)
	if err != nil {
		return nil, err
	}

	counts, err := s.counts(ctx, p, f)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM visit_requests v JOIN properties pr ON pr.id = v.property_id"+
			where+" ORDER BY v.visit_date DESC, v.id DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing visit requests: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	visits := []*Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visit request: %w", err)
		}
		visits = append(visits, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visit requests: %w", err)
	}

	return &ListResult{Visits: visits, Counts: counts}, nil
}

// CountByStatus returns how many of p's visit requests are in each status.
// Every status is present in the result.
func (s *Store) CountByStatus(ctx context.Context, p identity.Principal) (map[Status]int, error) {
	return s.counts(ctx, p, ListFilter{})
}

func (s *Store) counts(ctx context.Context, p identity.Principal, f ListFilter) (counts map[Status]int, err error) {
	where, args, err := conditions(p, f, false)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT v.status, COUNT(*) FROM visit_requests v JOIN properties pr ON pr.id = v.property_id"+
			where+" GROUP BY v.status",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("counting visit requests: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	counts = emptyCounts()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[Status(status)] = n
	}

	return counts, rows.Err()
}

// scanRequest scans the selectColumns of a request followed by any extra destinations.
func scanRequest(row interface{ Scan(...interface{}) error }, extra ...interface{}) (*Request, error) {
	var r Request
	var status string
	var canceledAt sql.NullTime

	dest := []interface{}{
		&r.ID, &r.PropertyID, &r.PropertyTitle, &r.UserID,
		&r.VisitDate, &status, &r.CreatedAt, &canceledAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	r.Status = Status(status)
	if canceledAt.Valid {
		r.CanceledAt = &canceledAt.Time
	}
	return &r, nil
}
