// Package dashboard combines conversation and visit counts into the badges
// shown on a participant's dashboard.
package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/rentwise/internal/identity"
	"github.com/evcraddock/rentwise/internal/visit"
)

// ConversationCounter is the read side of the conversation store.
type ConversationCounter interface {
	Count(ctx context.Context, p identity.Principal) (int, error)
	UnreadTotal(ctx context.Context, p identity.Principal) (int, error)
}

// VisitCounter is the read side of the visit store.
type VisitCounter interface {
	CountByStatus(ctx context.Context, p identity.Principal) (map[visit.Status]int, error)
}

// Summary is a participant's badge counts.
type Summary struct {
	Conversations  int                  `json:"conversations"`
	UnreadMessages int                  `json:"unread_messages"`
	Visits         map[visit.Status]int `json:"visits"`
}

// Service builds dashboard summaries.
type Service struct {
	conversations ConversationCounter
	visits        VisitCounter
}

// NewService creates a dashboard service.
func NewService(conversations ConversationCounter, visits VisitCounter) *Service {
	return &Service{conversations: conversations, visits: visits}
}

// Summary runs the three counts concurrently and returns the first error.
func (s *Service) Summary(ctx context.Context, p identity.Principal) (*Summary, error) {
	var sum Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.conversations.Count(ctx, p)
		if err != nil {
			return fmt.Errorf("counting conversations: %w", err)
		}
		sum.Conversations = n
		return nil
	})
	g.Go(func() error {
		n, err := s.conversations.UnreadTotal(ctx, p)
		if err != nil {
			return fmt.Errorf("counting unread messages: %w", err)
		}
		sum.UnreadMessages = n
		return nil
	})
	g.Go(func() error {
		counts, err := s.visits.CountByStatus(ctx, p)
		if err != nil {
			return fmt.Errorf("counting visits: %w", err)
		}
		sum.Visits = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &sum, nil
}
