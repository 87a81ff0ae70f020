package property

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/evcraddock/rentwise/internal/apperr"
	"github.com/evcraddock/rentwise/internal/db"
)

func TestInsertAndGetByID(t *testing.T) {
	repo, ownerID := testRepo(t)
	ctx := context.Background()

	price := int64(185000)
	saved, err := repo.Insert(ctx, &Property{
		OwnerID: ownerID,
		Title:   "  Sunny loft  ",
		Address: "12 Canal St",
		Price:   &price,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if saved.Title != "Sunny loft" {
		t.Errorf("title = %q, want %q", saved.Title, "Sunny loft")
	}
	if saved.Status != StatusActive {
		t.Errorf("status = %q, want %q", saved.Status, StatusActive)
	}

	got, err := repo.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.OwnerID != ownerID {
		t.Errorf("owner_id = %d, want %d", got.OwnerID, ownerID)
	}
	if got.Price == nil || *got.Price != price {
		t.Errorf("price = %v, want %d", got.Price, price)
	}
}

func TestInsertValidation(t *testing.T) {
	repo, ownerID := testRepo(t)
	negative := int64(-1)

	tests := []struct {
		name string
		p    *Property
	}{
		{"missing owner", &Property{Title: "Flat"}},
		{"blank title", &Property{OwnerID: ownerID, Title: "   "}},
		{"negative price", &Property{OwnerID: ownerID, Title: "Flat", Price: &negative}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Insert(context.Background(), tt.p)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _ := testRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByOwner(t *testing.T) {
	repo, ownerID := testRepo(t)
	ctx := context.Background()

	for _, title := range []string{"First", "Second", "Third"} {
		if _, err := repo.Insert(ctx, &Property{OwnerID: ownerID, Title: title}); err != nil {
			t.Fatalf("insert %s: %v", title, err)
		}
	}

	got, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d properties, want 3", len(got))
	}
	if got[0].Title != "Third" {
		t.Errorf("first = %q, want newest %q", got[0].Title, "Third")
	}

	none, err := repo.ListByOwner(ctx, ownerID+100)
	if err != nil {
		t.Fatalf("list other owner: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d properties for unknown owner, want 0", len(none))
	}
}

func TestUpdateStatus(t *testing.T) {
	repo, ownerID := testRepo(t)
	ctx := context.Background()

	p, err := repo.Insert(ctx, &Property{OwnerID: ownerID, Title: "Flat"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.UpdateStatus(ctx, p.ID, " Rented "); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusRented {
		t.Errorf("status = %q, want %q", got.Status, StatusRented)
	}

	if err := repo.UpdateStatus(ctx, 9999, StatusActive); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo, ownerID := testRepo(t)
	ctx := context.Background()

	p, err := repo.Insert(ctx, &Property{OwnerID: ownerID, Title: "Flat"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

// testRepo opens a temporary database with one owner user.
func testRepo(t *testing.T) (*Repository, int64) {
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
	return NewRepository(d), insertOwner(t, d)
}

func insertOwner(t *testing.T, d *sql.DB) int64 {
	t.Helper()
	res, err := d.Exec(`INSERT INTO users (email, name, role) VALUES ('owner@example.com', 'Olivia', 'owner')`)
	if err != nil {
		t.Fatalf("insert owner: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("last insert id: %v", err)
	}
	return id
}
