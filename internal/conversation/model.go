// Package conversation stores message threads between one owner and one tenant
// about one property, and tracks which messages each side has read.
package conversation

import (
	"time"
	"unicode/utf8"

	"github.com/evcraddock/rentwise/internal/identity"
)

// PreviewLength is the maximum number of runes shown for a last-message preview.
const PreviewLength = 80

// Conversation is the thread for one (property, tenant) pair.
type Conversation struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	OwnerID    int64     `json:"owner_id"`
	TenantID   int64     `json:"tenant_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasParty reports whether p is the owner or the tenant of the conversation,
// acting in the matching role.
func (c *Conversation) HasParty(p identity.Principal) bool {
	switch p.Role {
	case identity.RoleOwner:
		return p.ID == c.OwnerID
	case identity.RoleTenant:
		return p.ID == c.TenantID
	}
	return false
}

// Message is a single entry in a conversation. IsRead means the recipient has seen it.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Body           string    `json:"body"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// Filter narrows a conversation listing.
type Filter struct {
	PropertyID *int64
	UnreadOnly bool
	Query      string // case-insensitive match on title, counterpart name or last message
}

// Counterpart is the other participant as seen by the caller.
type Counterpart struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Preview is a shortened view of the latest message.
type Preview struct {
	Body      string    `json:"body"`
	SenderID  int64     `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is one row of a conversation listing.
type Summary struct {
	Conversation
	PropertyTitle string      `json:"property_title"`
	Counterpart   Counterpart `json:"counterpart"`
	LastMessage   *Preview    `json:"last_message,omitempty"`
	UnreadCount   int         `json:"unread_count"`
}

// truncatePreview shortens body to PreviewLength runes, marking the cut with an ellipsis.
func truncatePreview(body string) string {
	if utf8.RuneCountInString(body) <= PreviewLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:PreviewLength]) + "…"
}
