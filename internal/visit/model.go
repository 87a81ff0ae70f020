// Package visit tracks tenants' requests to visit a property and the
// role-gated status transitions owners and tenants apply to them.
package visit

import (
	"fmt"
	"time"

	"github.com/evcraddock/rentwise/internal/apperr"
)

// Status is where a visit request is in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCanceled}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no status transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusConfirmed:
		return "Confirmed"
	case StatusCompleted:
		return "Completed"
	case StatusCanceled:
		return "Canceled"
	default:
		return string(s)
	}
}

// Action is an operation applied to a visit request.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

// Actions lists every action.
var Actions = []Action{ActionConfirm, ActionCancel, ActionComplete, ActionDelete}

// IsValid checks if an action is recognized.
func (a Action) IsValid() bool {
	for _, v := range Actions {
		if a == v {
			return true
		}
	}
	return false
}

// Party is the relation of an actor to a visit request.
type Party int

const (
	// PartyOwner owns the property being visited.
	PartyOwner Party = iota + 1
	// PartyTenant made the request.
	PartyTenant
)

func (p Party) String() string {
	switch p {
	case PartyOwner:
		return "owner"
	case PartyTenant:
		return "tenant"
	}
	return "unknown"
}

// Removed is the Status Transition returns for a delete: the record goes away.
const Removed Status = ""

// Transition returns the status that applying action from the from status
// yields when performed by actor. Delete yields Removed. Any combination not
// in the lifecycle table returns apperr.ErrIllegalTransition.
//
//	confirm   pending            owner          -> confirmed
//	cancel    pending, confirmed owner, tenant  -> canceled
//	complete  confirmed          owner          -> completed
//	delete    completed, canceled owner, tenant -> removed
func Transition(from Status, action Action, actor Party) (Status, error) {
	isOwner := actor == PartyOwner
	isParty := isOwner || actor == PartyTenant

	switch action {
	case ActionConfirm:
		if from == StatusPending && isOwner {
			return StatusConfirmed, nil
		}
	case ActionCancel:
		if (from == StatusPending || from == StatusConfirmed) && isParty {
			return StatusCanceled, nil
		}
	case ActionComplete:
		if from == StatusConfirmed && isOwner {
			return StatusCompleted, nil
		}
	case ActionDelete:
		if from.IsTerminal() && isParty {
			return Removed, nil
		}
	}
	return from, fmt.Errorf("%s cannot %s a %s visit request: %w", actor, action, from, apperr.ErrIllegalTransition)
}

// Request is a tenant's request to visit a property.
type Request struct {
	ID            int64      `json:"id"`
	PropertyID    int64      `json:"property_id"`
	PropertyTitle string     `json:"property_title,omitempty"`
	UserID        int64      `json:"user_id"`
	VisitDate     time.Time  `json:"visit_date"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
}

// ListFilter narrows a visit listing. Zero values match everything.
type ListFilter struct {
	Status     *Status
	PropertyID *int64
	From, To   *time.Time // inclusive bounds on visit_date
}

// ListResult is a filtered listing plus per-status counts for badges.
type ListResult struct {
	Visits []*Request     `json:"visits"`
	Counts map[Status]int `json:"counts"`
}

// emptyCounts returns a count map with every status present.
func emptyCounts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	return counts
}
