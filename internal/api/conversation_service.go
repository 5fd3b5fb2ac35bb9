package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/heyfriend/heyfriend/internal/backend"
	"go.uber.org/zap"
)

// CreateConversation starts a conversation with the caller and members. A
// direct conversation has exactly one other member.
func (s *Service) CreateConversation(ctx context.Context, name, description string, isGroup bool, members []backend.Principal) (string, error) {
	u, err := s.registered(ctx)
	if err != nil {
		return "", err
	}

	all := []backend.Principal{u.Principal}
	seen := map[backend.Principal]bool{u.Principal: true}
	for _, m := range members {
		if seen[m] {
			continue
		}
		seen[m] = true
		other, err := s.db.GetUser(m)
		if err != nil {
			return "", fmt.Errorf("get user: %w", err)
		}
		if other == nil {
			return "", fmt.Errorf("member %s: %w", m, backend.ErrNotFound)
		}
		all = append(all, m)
	}
	if !isGroup && len(all) != 2 {
		return "", fmt.Errorf("direct conversation needs exactly one other member: %w", backend.ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)
	if isGroup && name == "" {
		return "", fmt.Errorf("group name is required: %w", backend.ErrInvalidArgument)
	}

	c := &backend.Conversation{
		ID:          uuid.NewString(),
		Members:     all,
		IsGroup:     isGroup,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now(),
	}
	if err := s.db.InsertConversation(c); err != nil {
		return "", fmt.Errorf("insert conversation: %w", err)
	}
	s.logger.Info("conversation created", zap.String("id", c.ID), zap.Bool("group", isGroup), zap.Int("members", len(all)))
	s.emit(KindConversationCreated, c.ID)
	return c.ID, nil
}

func (s *Service) GetConversation(ctx context.Context, conversationID string) (*backend.Conversation, error) {
	_, c, err := s.member(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetConversations lists the caller's conversations, most recently active
// first, with their last message and the caller's unread count.
func (s *Service) GetConversations(ctx context.Context) ([]backend.ConversationSummary, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.db.ListConversationIDs(p)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	out := make([]backend.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		c, err := s.db.GetConversation(id)
		if err != nil {
			return nil, fmt.Errorf("get conversation: %w", err)
		}
		if c == nil {
			continue
		}
		last, err := s.db.LastMessage(id)
		if err != nil {
			return nil, fmt.Errorf("last message: %w", err)
		}
		unread, err := s.db.UnreadCount(id, p)
		if err != nil {
			return nil, fmt.Errorf("unread count: %w", err)
		}
		out = append(out, backend.ConversationSummary{Conversation: *c, LastMessage: last, UnreadCount: unread})
	}
	return out, nil
}

func (s *Service) LeaveConversation(ctx context.Context, conversationID string) error {
	p, _, err := s.member(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := s.db.RemoveMember(conversationID, p); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// AddMember adds a registered user to a group the caller belongs to.
func (s *Service) AddMember(ctx context.Context, conversationID string, member backend.Principal) error {
	_, c, err := s.member(ctx, conversationID)
	if err != nil {
		return err
	}
	if !c.IsGroup {
		return fmt.Errorf("members can only be added to groups: %w", backend.ErrInvalidArgument)
	}
	u, err := s.db.GetUser(member)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return fmt.Errorf("member %s: %w", member, backend.ErrNotFound)
	}
	if err := s.db.AddMember(conversationID, member); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, conversationID string, member backend.Principal) error {
	_, c, err := s.member(ctx, conversationID)
	if err != nil {
		return err
	}
	if !c.IsGroup {
		return fmt.Errorf("members can only be removed from groups: %w", backend.ErrInvalidArgument)
	}
	if !c.HasMember(member) {
		return fmt.Errorf("member %s: %w", member, backend.ErrNotFound)
	}
	if err := s.db.RemoveMember(conversationID, member); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *Service) GetTotalUnread(ctx context.Context) (int, error) {
	counts, err := s.GetUnreadCounts(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	return total, nil
}

// GetUnreadCounts lists conversations with at least one unread message.
func (s *Service) GetUnreadCounts(ctx context.Context) ([]backend.UnreadCount, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.db.ListConversationIDs(p)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	out := []backend.UnreadCount{}
	for _, id := range ids {
		n, err := s.db.UnreadCount(id, p)
		if err != nil {
			return nil, fmt.Errorf("unread count: %w", err)
		}
		if n > 0 {
			out = append(out, backend.UnreadCount{ConversationID: id, Count: n})
		}
	}
	return out, nil
}

// MarkConversationAsRead moves the caller's read mark to now. Repeating it
// changes nothing.
func (s *Service) MarkConversationAsRead(ctx context.Context, conversationID string) error {
	p, _, err := s.member(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := s.db.MarkRead(conversationID, p, s.now()); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
