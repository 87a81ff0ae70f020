package conversation

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

// PropertyDirectory looks up the property a conversation is about.
type PropertyDirectory interface {
	GetByID(ctx context.Context, id int64) (*property.Property, error)
}

// Store provides conversation and message persistence in SQLite.
type Store struct {
	db         *sql.DB
	properties PropertyDirectory
	now        func() time.Time
}

// NewStore creates a conversation store.
func NewStore(db *sql.DB, properties PropertyDirectory) *Store {
	return &Store{
		db:         db,
		properties: properties,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

const conversationColumns = "id, property_id, owner_id, tenant_id, created_at"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// FindOrCreate returns the conversation between tenant and the owner of
// propertyID, creating it if none exists. The bool reports whether this call
// created it. Concurrent callers for the same pair all receive the same row.
func (s *Store) FindOrCreate(ctx context.Context, propertyID int64, tenant identity.Principal) (*Conversation, bool, error) {
	prop, err := s.propertyFor(ctx, propertyID, tenant)
	if err != nil {
		return nil, false, err
	}

	var conv *Conversation
	var created bool
	err = db.RetryConflict(func() error {
		var err error
		conv, created, err = s.findOrCreate(ctx, s.db, prop, tenant.ID)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.ConversationsCreated.Inc()
	}
	return conv, created, nil
}

// propertyFor checks that tenant may open a conversation and loads the property.
func (s *Store) propertyFor(ctx context.Context, propertyID int64, tenant identity.Principal) (*property.Property, error) {
	if !tenant.IsTenant() {
		return nil, fmt.Errorf("starting conversation: %w", apperr.ErrUnauthorized)
	}

	prop, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("looking up property: %w", err)
	}
	return prop, nil
}

func (s *Store) findOrCreate(ctx context.Context, q queryer, prop *property.Property, tenantID int64) (*Conversation, bool, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO conversations (property_id, owner_id, tenant_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (property_id, tenant_id) DO NOTHING`,
		prop.ID, prop.OwnerID, tenantID, s.now(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("inserting conversation: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("checking rows affected: %w", err)
	}

	row := q.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE property_id = ? AND tenant_id = ?",
		prop.ID, tenantID,
	)
	conv, err := scanConversation(row)
	if err != nil {
		return nil, false, fmt.Errorf("reading back conversation: %w", err)
	}

	return conv, n == 1, nil
}

// Get returns a conversation by ID without an authorization check.
func (s *Store) Get(ctx context.Context, id int64) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+conversationColumns+" FROM conversations WHERE id = ?", id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation %d: %w", id, err)
	}
	return conv, nil
}

// getForParty loads a conversation and checks p takes part in it.
func (s *Store) getForParty(ctx context.Context, id int64, p identity.Principal) (*Conversation, error) {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParty(p) {
		return nil, fmt.Errorf("conversation %d: %w", id, apperr.ErrUnauthorized)
	}
	return conv, nil
}

// Send appends a message from sender. The body is trimmed; an empty body is
// rejected before the store is touched.
func (s *Store) Send(ctx context.Context, conversationID int64, sender identity.Principal, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("message body is required")
	}

	if _, err := s.getForParty(ctx, conversationID, sender); err != nil {
		return nil, err
	}

	msg, err := s.insertMessage(ctx, s.db, conversationID, sender.ID, body)
	if err != nil {
		return nil, err
	}

	metrics.MessagesSent.WithLabelValues(string(sender.Role)).Inc()
	return msg, nil
}

// SendToProperty is the tenant's first-contact path: it resolves (or opens)
// the conversation for propertyID and appends the message to it. Both writes
// commit together.
func (s *Store) SendToProperty(ctx context.Context, propertyID int64, tenant identity.Principal, body string) (*Conversation, *Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil, apperr.Validation("message body is required")
	}

	prop, err := s.propertyFor(ctx, propertyID, tenant)
	if err != nil {
		return nil, nil, err
	}

	var conv *Conversation
	var msg *Message
	var created bool
	err = db.RetryConflict(func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			var err error
			conv, created, err = s.findOrCreate(ctx, tx, prop, tenant.ID)
			if err != nil {
				return err
			}
			msg, err = s.insertMessage(ctx, tx, conv.ID, tenant.ID, body)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	if created {
		metrics.ConversationsCreated.Inc()
	}
	metrics.MessagesSent.WithLabelValues(string(tenant.Role)).Inc()
	return conv, msg, nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (also failed to roll back: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) insertMessage(ctx context.Context, q queryer, conversationID, senderID int64, body string) (*Message, error) {
	now := s.now()
	result, err := q.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, body, is_read, created_at) VALUES (?, ?, ?, 0, ?)",
		conversationID, senderID, body, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return &Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      now,
	}, nil
}

// Messages returns the full history of a conversation, oldest first, after
// marking every message addressed to reader as read. The reader's own messages
// are never touched. Repeated calls are idempotent.
func (s *Store) Messages(ctx context.Context, conversationID int64, reader identity.Principal) (messages []*Message, err error) {
	if _, err := s.getForParty(ctx, conversationID, reader); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE messages SET is_read = 1 WHERE conversation_id = ? AND sender_id != ? AND is_read = 0",
		conversationID, reader.ID,
	); err != nil {
		return nil, fmt.Errorf("marking messages read: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, sender_id, body, is_read, created_at
		 FROM messages WHERE conversation_id = ?
		 ORDER BY created_at ASC, id ASC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return messages, nil
}

// sides returns the column matching p and the column holding the counterpart.
func sides(p identity.Principal) (self, other string, err error) {
	switch p.Role {
	case identity.RoleOwner:
		return "c.owner_id", "c.tenant_id", nil
	case identity.RoleTenant:
		return "c.tenant_id", "c.owner_id", nil
	}
	return "", "", fmt.Errorf("role %q: %w", p.Role, apperr.ErrUnauthorized)
}

// List returns the conversations p takes part in, most recently active first.
// Conversations without messages sort last.
func (s *Store) List(ctx context.Context, p identity.Principal, f Filter) (summaries []Summary, err error) {
	self, other, err := sides(p)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT c.id, c.property_id, c.owner_id, c.tenant_id, c.created_at,
		       pr.title, u.id, u.name,
		       lm.body, lm.sender_id, lm.created_at,
		       (SELECT COUNT(*) FROM messages um
		         WHERE um.conversation_id = c.id AND um.sender_id != ? AND um.is_read = 0)
		FROM conversations c
		JOIN properties pr ON pr.id = c.property_id
		JOIN users u ON u.id = %s
		LEFT JOIN messages lm ON lm.id = (
		    SELECT m.id FROM messages m WHERE m.conversation_id = c.id
		    ORDER BY m.created_at DESC, m.id DESC LIMIT 1)
		WHERE %s = ?`, other, self)
	args := []interface{}{p.ID, p.ID}

	if f.PropertyID != nil {
		query += " AND c.property_id = ?"
		args = append(args, *f.PropertyID)
	}
	if f.UnreadOnly {
		query += ` AND EXISTS (SELECT 1 FROM messages um
		    WHERE um.conversation_id = c.id AND um.sender_id != ? AND um.is_read = 0)`
		args = append(args, p.ID)
	}

	query += " ORDER BY (lm.id IS NULL), lm.created_at DESC, c.created_at DESC, c.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	needle := strings.ToLower(strings.TrimSpace(f.Query))
	for rows.Next() {
		var sum Summary
		var lastBody sql.NullString
		var lastSender sql.NullInt64
		var lastAt sql.NullTime
		err := rows.Scan(
			&sum.ID, &sum.PropertyID, &sum.OwnerID, &sum.TenantID, &sum.CreatedAt,
			&sum.PropertyTitle, &sum.Counterpart.ID, &sum.Counterpart.Name,
			&lastBody, &lastSender, &lastAt,
			&sum.UnreadCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}

		if needle != "" && !matches(needle, sum.PropertyTitle, sum.Counterpart.Name, lastBody.String) {
			continue
		}

		if lastBody.Valid {
			sum.LastMessage = &Preview{
				Body:      truncatePreview(lastBody.String),
				SenderID:  lastSender.Int64,
				CreatedAt: lastAt.Time,
			}
		}
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}

	return summaries, nil
}

// matches reports whether any field contains the lowercased needle.
func matches(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// UnreadTotal counts messages addressed to p that p has not read, across all conversations.
func (s *Store) UnreadTotal(ctx context.Context, p identity.Principal) (int, error) {
	self, _, err := sides(p)
	if err != nil {
		return 0, err
	}

	var n int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE %s = ? AND m.sender_id != ? AND m.is_read = 0`, self),
		p.ID, p.ID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return n, nil
}

// Count returns how many conversations p takes part in.
func (s *Store) Count(ctx context.Context, p identity.Principal) (int, error) {
	self, _, err := sides(p)
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM conversations c WHERE %s = ?", self), p.ID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting conversations: %w", err)
	}
	return n, nil
}

func scanConversation(row interface{ Scan(...interface{}) error }) (*Conversation, error) {
	var c Conversation
	if err := row.Scan(&c.ID, &c.PropertyID, &c.OwnerID, &c.TenantID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
