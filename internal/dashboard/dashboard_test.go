package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/conversation"
	"github.com/evcraddock/rentwise/internal/db"
	"github.com/evcraddock/rentwise/internal/identity"
	"github.com/evcraddock/rentwise/internal/property"
	"github.com/evcraddock/rentwise/internal/visit"
)

func TestSummary(t *testing.T) {
	d := openDB(t)
	ctx := context.Background()

	props := property.NewRepository(d)
	owner := identity.Principal{ID: insertUser(t, d, "owner@example.com", "owner"), Role: identity.RoleOwner}
	tenant := identity.Principal{ID: insertUser(t, d, "tenant@example.com", "tenant"), Role: identity.RoleTenant}
	prop, err := props.Insert(ctx, &property.Property{OwnerID: owner.ID, Title: "Sunny loft"})
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}

	convs := conversation.NewStore(d, props)
	visits := visit.NewStore(d, props)

	if _, _, err := convs.SendToProperty(ctx, prop.ID, tenant, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, _, err := convs.SendToProperty(ctx, prop.ID, tenant, "anyone there?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	req, err := visits.Create(ctx, prop.ID, tenant, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create visit: %v", err)
	}
	if _, err := visits.Create(ctx, prop.ID, tenant, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("create visit: %v", err)
	}
	if _, err := visits.Apply(ctx, req.ID, owner, visit.ActionConfirm); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	svc := NewService(convs, visits)

	got, err := svc.Summary(ctx, owner)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Conversations != 1 || got.UnreadMessages != 2 {
		t.Errorf("owner summary = %+v, want 1 conversation, 2 unread", got)
	}
	if got.Visits[visit.StatusPending] != 1 || got.Visits[visit.StatusConfirmed] != 1 {
		t.Errorf("owner visit counts = %v", got.Visits)
	}

	got, err = svc.Summary(ctx, tenant)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Conversations != 1 || got.UnreadMessages != 0 {
		t.Errorf("tenant summary = %+v, want 1 conversation, 0 unread", got)
	}
}

type failingVisits struct{}

func (failingVisits) CountByStatus(context.Context, identity.Principal) (map[visit.Status]int, error) {
	return nil, apperr.ErrConflict
}

func TestSummaryPropagatesError(t *testing.T) {
	d := openDB(t)
	svc := NewService(conversation.NewStore(d, property.NewRepository(d)), failingVisits{})

	_, err := svc.Summary(context.Background(), identity.Principal{ID: 1, Role: identity.RoleOwner})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}

func insertUser(t *testing.T, d *sql.DB, email, role string) int64 {
	t.Helper()
	res, err := d.Exec("INSERT INTO users (email, name, role) VALUES (?, ?, ?)", email, email, role)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return id
}
