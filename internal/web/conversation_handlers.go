package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/rentwise/internal/conversation"
)

type messageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type startConversationResponse struct {
	Conversation *conversation.Conversation `json:"conversation"`
	Message      *conversation.Message      `json:"message"`
}

type threadResponse struct {
	Conversation *conversation.Conversation `json:"conversation"`
	Messages     []*conversation.Message    `json:"messages"`
}

// apiMessageProperty sends a tenant's message about a property, opening the
// conversation with its owner if needed.
func (s *Server) apiMessageProperty(w http.ResponseWriter, r *http.Request, propertyID int64) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	conv, msg, err := s.conversations.SendToProperty(r.Context(), propertyID, p, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, startConversationResponse{Conversation: conv, Message: msg}, http.StatusCreated)
}

// handleAPIConversations routes /api/conversations requests.
func (s *Server) handleAPIConversations(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/conversations"), "/")

	if path == "" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiListConversations(w, r)
		return
	}

	id, rest, ok := pathID(r.URL.Path, "/api/conversations")
	if !ok {
		apiError(w, "invalid conversation ID", http.StatusBadRequest)
		return
	}
	if rest != "messages" {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.apiThread(w, r, id)
	case http.MethodPost:
		s.apiReply(w, r, id)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) apiListConversations(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	propertyID, err := queryInt64(r, "property_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	unread, err := queryBool(r, "unread")
	if err != nil {
		writeError(w, r, err)
		return
	}

	sums, err := s.conversations.List(r.Context(), p, conversation.Filter{
		PropertyID: propertyID,
		UnreadOnly: unread,
		Query:      r.URL.Query().Get("q"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sums == nil {
		sums = []conversation.Summary{}
	}
	apiJSON(w, sums, http.StatusOK)
}

// apiThread returns a conversation's messages, marking the caller's incoming ones read.
func (s *Server) apiThread(w http.ResponseWriter, r *http.Request, id int64) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	msgs, err := s.conversations.Messages(r.Context(), id, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	conv, err := s.conversations.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*conversation.Message{}
	}
	apiJSON(w, threadResponse{Conversation: conv, Messages: msgs}, http.StatusOK)
}

func (s *Server) apiReply(w http.ResponseWriter, r *http.Request, id int64) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	msg, err := s.conversations.Send(r.Context(), id, p, req.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiJSON(w, msg, http.StatusCreated)
}
