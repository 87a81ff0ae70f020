package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/evcraddock/rentwise/internal/auth"
	"github.com/evcraddock/rentwise/internal/conversation"
	"github.com/evcraddock/rentwise/internal/db"
	"github.com/evcraddock/rentwise/internal/identity"
	"github.com/evcraddock/rentwise/internal/property"
	"github.com/evcraddock/rentwise/internal/visit"
	"github.com/evcraddock/rentwise/internal/web"
)

func TestListConversationsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversations" {
			t.Errorf("path = %q, want /api/conversations", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer testkey" {
			t.Error("expected Bearer testkey")
		}
		q := r.URL.Query()
		if q.Get("property_id") != "7" || q.Get("unread") != "true" || q.Get("q") != "pets ok" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode([]conversation.Summary{{PropertyTitle: "Loft", UnreadCount: 2}}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	sums, err := c.ListConversations(ConversationOptions{PropertyID: 7, UnreadOnly: true, Query: "pets ok"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sums) != 1 || sums[0].UnreadCount != 2 {
		t.Errorf("sums = %+v", sums)
	}
}

func TestListVisitsNoFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query = %q, want empty", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(visit.ListResult{Visits: []*visit.Request{}}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	if _, err := c.ListVisits(VisitOptions{}); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestApplyVisitMethods(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(&visit.Request{ID: 3, Status: visit.StatusConfirmed}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	v, err := c.ApplyVisit(3, visit.ActionConfirm)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if v.Status != visit.StatusConfirmed {
		t.Errorf("status = %q", v.Status)
	}
	if v, err := c.ApplyVisit(3, visit.ActionDelete); err != nil || v != nil {
		t.Fatalf("delete = %v, %v", v, err)
	}

	want := []string{"POST /api/visits/3/confirm", "DELETE /api/visits/3"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("requests = %v, want %v", got, want)
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		if err := json.NewEncoder(w).Encode(map[string]string{"error": "owner cannot complete a canceled visit request"}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	_, err := c.ApplyVisit(1, visit.ActionComplete)
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("err = %#v, want APIError 409", err)
	}
	if err.Error() != "owner cannot complete a canceled visit request" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "badkey")
	_, err := c.Me()
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	if apiErr.Message != "server error: Unauthorized" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

// TestAgainstServer walks a tenant question, an owner reply and a visit
// confirmation through the real API handler.
func TestAgainstServer(t *testing.T) {
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	users := auth.NewUserStore(d)
	keys := auth.NewAPIKeyStore(d)
	newKey := func(email string, role identity.Role) (*auth.User, string) {
		u, err := users.Add(t.Context(), email, email, role)
		if err != nil {
			t.Fatalf("add user: %v", err)
		}
		raw, _, err := keys.Create(t.Context(), u.ID, "")
		if err != nil {
			t.Fatalf("create key: %v", err)
		}
		return u, raw
	}
	ownerUser, ownerKey := newKey("owner@example.com", identity.RoleOwner)
	_, tenantKey := newKey("tenant@example.com", identity.RoleTenant)

	prop, err := property.NewRepository(d).Insert(t.Context(), &property.Property{OwnerID: ownerUser.ID, Title: "Loft"})
	if err != nil {
		t.Fatalf("insert property: %v", err)
	}

	srv := httptest.NewServer(web.NewServer(d, web.Options{}))
	defer srv.Close()
	owner := New(srv.URL, ownerKey)
	tenant := New(srv.URL, tenantKey)

	start, err := tenant.MessageProperty(prop.ID, "Still available?")
	if err != nil {
		t.Fatalf("message property: %v", err)
	}
	if _, err := owner.Reply(start.Conversation.ID, "Yes"); err != nil {
		t.Fatalf("reply: %v", err)
	}

	thread, err := tenant.Thread(start.Conversation.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(thread.Messages) != 2 {
		t.Fatalf("thread has %d messages, want 2", len(thread.Messages))
	}

	req, err := tenant.RequestVisit(prop.ID, "2026-11-02T10:00")
	if err != nil {
		t.Fatalf("request visit: %v", err)
	}
	if _, err := owner.ApplyVisit(req.ID, visit.ActionConfirm); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	sum, err := owner.Dashboard()
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if sum.Conversations != 1 || sum.UnreadMessages != 0 || sum.Visits[visit.StatusConfirmed] != 1 {
		t.Errorf("dashboard = %+v", sum)
	}
}
