package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/evcraddock/rentwise/internal/conversation"
)

func sendFromTenant(t *testing.T, api *testAPI, body string) startConversationResponse {
	t.Helper()
	w := apiRequest(t, api.srv, "POST", "/api/properties/"+itoa(api.propertyID)+"/messages", api.tenant, messageRequest{Body: body})
	expectStatus(t, w, http.StatusCreated)
	var resp startConversationResponse
	decode(t, w, &resp)
	return resp
}

func TestAPIMessagePropertyOpensConversation(t *testing.T) {
	api := testAPIServer(t)

	first := sendFromTenant(t, api, "  Is parking included?  ")
	if first.Conversation.OwnerID != api.ownerID || first.Conversation.TenantID != api.tenantID {
		t.Errorf("conversation parties = %+v", first.Conversation)
	}
	if first.Message.Body != "Is parking included?" {
		t.Errorf("body = %q, want trimmed", first.Message.Body)
	}

	second := sendFromTenant(t, api, "Also, pets?")
	if second.Conversation.ID != first.Conversation.ID {
		t.Errorf("second message opened conversation %d, want %d", second.Conversation.ID, first.Conversation.ID)
	}
}

func TestAPIMessagePropertyRejections(t *testing.T) {
	api := testAPIServer(t)

	tests := []struct {
		name  string
		path  string
		token string
		body  interface{}
		want  int
	}{
		{"owner cannot open", "/api/properties/" + itoa(api.propertyID) + "/messages", api.owner, messageRequest{Body: "hi"}, http.StatusForbidden},
		{"blank body", "/api/properties/" + itoa(api.propertyID) + "/messages", api.tenant, messageRequest{Body: "   "}, http.StatusBadRequest},
		{"missing body", "/api/properties/" + itoa(api.propertyID) + "/messages", api.tenant, map[string]string{}, http.StatusBadRequest},
		{"too long", "/api/properties/" + itoa(api.propertyID) + "/messages", api.tenant, messageRequest{Body: strings.Repeat("a", 4001)}, http.StatusBadRequest},
		{"unknown property", "/api/properties/9999/messages", api.tenant, messageRequest{Body: "hi"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, api.srv, "POST", tt.path, tt.token, tt.body)
			expectStatus(t, w, tt.want)
		})
	}

	var n int
	if err := api.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("messages = %d, want 0 after rejected sends", n)
	}
}

func TestAPIThreadAndReply(t *testing.T) {
	api := testAPIServer(t)
	start := sendFromTenant(t, api, "Is it available?")
	threadPath := "/api/conversations/" + itoa(start.Conversation.ID) + "/messages"

	w := apiRequest(t, api.srv, "GET", "/api/conversations", api.owner, nil)
	expectStatus(t, w, http.StatusOK)
	var sums []conversation.Summary
	decode(t, w, &sums)
	if len(sums) != 1 || sums[0].UnreadCount != 1 {
		t.Fatalf("owner summaries = %+v, want one with 1 unread", sums)
	}
	if sums[0].Counterpart.Name != "Tess" || sums[0].PropertyTitle != "Sunny loft" {
		t.Errorf("summary = %+v", sums[0])
	}

	w = apiRequest(t, api.srv, "GET", threadPath, api.owner, nil)
	expectStatus(t, w, http.StatusOK)
	var thread threadResponse
	decode(t, w, &thread)
	if len(thread.Messages) != 1 || !thread.Messages[0].IsRead {
		t.Fatalf("thread = %+v, want one read message", thread.Messages)
	}

	w = apiRequest(t, api.srv, "POST", threadPath, api.owner, messageRequest{Body: "Yes, from March."})
	expectStatus(t, w, http.StatusCreated)

	w = apiRequest(t, api.srv, "GET", "/api/conversations?unread=true", api.owner, nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &sums)
	if len(sums) != 0 {
		t.Errorf("owner unread conversations = %d, want 0", len(sums))
	}

	w = apiRequest(t, api.srv, "GET", "/api/conversations?unread=true", api.tenant, nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &sums)
	if len(sums) != 1 || sums[0].LastMessage == nil || sums[0].LastMessage.Body != "Yes, from March." {
		t.Errorf("tenant unread summaries = %+v", sums)
	}
}

func TestAPIThreadAuthorization(t *testing.T) {
	api := testAPIServer(t)
	start := sendFromTenant(t, api, "Hello")
	threadPath := "/api/conversations/" + itoa(start.Conversation.ID) + "/messages"

	w := apiRequest(t, api.srv, "GET", threadPath, api.other, nil)
	expectStatus(t, w, http.StatusForbidden)

	w = apiRequest(t, api.srv, "POST", threadPath, api.other, messageRequest{Body: "butting in"})
	expectStatus(t, w, http.StatusForbidden)

	w = apiRequest(t, api.srv, "GET", "/api/conversations/9999/messages", api.tenant, nil)
	expectStatus(t, w, http.StatusNotFound)

	w = apiRequest(t, api.srv, "GET", "/api/conversations/"+itoa(start.Conversation.ID), api.tenant, nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestAPIListConversationFilters(t *testing.T) {
	api := testAPIServer(t)
	sendFromTenant(t, api, "About the balcony")

	tests := []struct {
		query string
		want  int
		code  int
	}{
		{"", 1, http.StatusOK},
		{"?q=balcony", 1, http.StatusOK},
		{"?q=BALCONY", 1, http.StatusOK},
		{"?q=garage", 0, http.StatusOK},
		{"?property_id=" + itoa(api.propertyID), 1, http.StatusOK},
		{"?property_id=9999", 0, http.StatusOK},
		{"?property_id=abc", 0, http.StatusBadRequest},
		{"?unread=maybe", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := apiRequest(t, api.srv, "GET", "/api/conversations"+tt.query, api.tenant, nil)
		if w.Code != tt.code {
			t.Errorf("GET %s status = %d, want %d", tt.query, w.Code, tt.code)
			continue
		}
		if tt.code != http.StatusOK {
			continue
		}
		var sums []conversation.Summary
		decode(t, w, &sums)
		if len(sums) != tt.want {
			t.Errorf("GET %s returned %d conversations, want %d", tt.query, len(sums), tt.want)
		}
	}
}
