package visit

import (
	"errors"
	"testing"

	"github.com/evcraddock/rentwise/internal/apperr"
)

func TestTransitionGrid(t *testing.T) {
	type key struct {
		from   Status
		action Action
		actor  Party
	}
	legal := map[key]Status{
		{StatusPending, ActionConfirm, PartyOwner}:    StatusConfirmed,
		{StatusPending, ActionCancel, PartyOwner}:     StatusCanceled,
		{StatusPending, ActionCancel, PartyTenant}:    StatusCanceled,
		{StatusConfirmed, ActionCancel, PartyOwner}:   StatusCanceled,
		{StatusConfirmed, ActionCancel, PartyTenant}:  StatusCanceled,
		{StatusConfirmed, ActionComplete, PartyOwner}: StatusCompleted,
		{StatusCompleted, ActionDelete, PartyOwner}:   Removed,
		{StatusCompleted, ActionDelete, PartyTenant}:  Removed,
		{StatusCanceled, ActionDelete, PartyOwner}:    Removed,
		{StatusCanceled, ActionDelete, PartyTenant}:   Removed,
	}

	for _, from := range Statuses {
		for _, action := range Actions {
			for _, actor := range []Party{PartyOwner, PartyTenant, Party(0)} {
				k := key{from, action, actor}
				name := string(from) + "/" + string(action) + "/" + actor.String()
				t.Run(name, func(t *testing.T) {
					got, err := Transition(from, action, actor)
					want, ok := legal[k]
					if ok {
						if err != nil {
							t.Fatalf("unexpected error: %v", err)
						}
						if got != want {
							t.Errorf("got %q, want %q", got, want)
						}
						return
					}
					if !errors.Is(err, apperr.ErrIllegalTransition) {
						t.Fatalf("err = %v, want ErrIllegalTransition", err)
					}
					if got != from {
						t.Errorf("illegal transition changed status to %q", got)
					}
				})
			}
		}
	}
}

func TestTerminalStatesOnlyDelete(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCanceled} {
		if !from.IsTerminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, action := range []Action{ActionConfirm, ActionCancel, ActionComplete} {
			for _, actor := range []Party{PartyOwner, PartyTenant} {
				if _, err := Transition(from, action, actor); !errors.Is(err, apperr.ErrIllegalTransition) {
					t.Errorf("%s %s by %s: err = %v, want ErrIllegalTransition", from, action, actor, err)
				}
			}
		}
	}
	for _, s := range []Status{StatusPending, StatusConfirmed} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatusAndActionValid(t *testing.T) {
	for _, s := range Statuses {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	for _, s := range []Status{"", "cancelled", "rejected"} {
		if s.IsValid() {
			t.Errorf("%q should be invalid", s)
		}
	}
	for _, a := range Actions {
		if !a.IsValid() {
			t.Errorf("%s should be valid", a)
		}
	}
	if Action("reschedule").IsValid() {
		t.Error("reschedule should be invalid")
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusPending, "Pending"},
		{StatusConfirmed, "Confirmed"},
		{StatusCompleted, "Completed"},
		{StatusCanceled, "Canceled"},
		{"other", "other"},
	}
	for _, tt := range tests {
		if got := tt.s.Label(); got != tt.want {
			t.Errorf("Label(%q) = %q, want %q", tt.s, got, tt.want)
		}
	}
}
