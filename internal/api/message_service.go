package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/heyfriend/heyfriend/internal/backend"
)

const maxPage = 500

func (s *Service) GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]backend.Message, error) {
	if _, _, err := s.member(ctx, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPage {
		return nil, fmt.Errorf("limit %d outside 1..%d: %w", limit, maxPage, backend.ErrInvalidArgument)
	}
	if offset < 0 {
		return nil, fmt.Errorf("negative offset: %w", backend.ErrInvalidArgument)
	}
	msgs, err := s.db.ListMessages(conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// SendMessage posts to a conversation the caller belongs to. Media must be
// uploaded first and is referenced by blob ID or URL.
func (s *Service) SendMessage(ctx context.Context, conversationID, content string, mediaType backend.MediaType, media *backend.Blob) (string, error) {
	p, _, err := s.member(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if !mediaType.Valid() {
		return "", fmt.Errorf("media type %q: %w", mediaType, backend.ErrInvalidArgument)
	}
	if mediaType == backend.MediaText && strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty text message: %w", backend.ErrInvalidArgument)
	}
	blob, err := s.resolveBlob(media)
	if err != nil {
		return "", err
	}

	m := &backend.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Sender:         p,
		Content:        content,
		MediaType:      mediaType,
		Status:         backend.StatusSent,
		Timestamp:      s.now(),
		Media:          blob,
	}
	if err := s.db.InsertMessage(m); err != nil {
		return "", fmt.Errorf("insert message: %w", err)
	}
	s.emit(KindMessageSent, m.MediaType)
	return m.ID, nil
}

// message loads a message the caller can see.
func (s *Service) message(ctx context.Context, messageID string) (backend.Principal, *backend.Message, error) {
	m, err := s.db.GetMessage(messageID)
	if err != nil {
		return "", nil, fmt.Errorf("get message: %w", err)
	}
	if m == nil {
		return "", nil, fmt.Errorf("message %q: %w", messageID, backend.ErrNotFound)
	}
	p, _, err := s.member(ctx, m.ConversationID)
	if err != nil {
		return "", nil, err
	}
	return p, m, nil
}

// DeleteMessage soft-deletes a message. Only its sender may.
func (s *Service) DeleteMessage(ctx context.Context, messageID string) error {
	p, m, err := s.message(ctx, messageID)
	if err != nil {
		return err
	}
	if m.Sender != p {
		return fmt.Errorf("only the sender deletes a message: %w", backend.ErrPermissionDenied)
	}
	if m.Status == backend.StatusDeleted {
		return nil
	}
	if err := s.db.SoftDeleteMessage(messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	s.emit(KindMessageDeleted, messageID)
	return nil
}

// UpdateMessageStatus moves a message's status forward. Moving it back is
// ignored; deleting goes through DeleteMessage's rules.
func (s *Service) UpdateMessageStatus(ctx context.Context, messageID string, st backend.MessageStatus) error {
	if !st.Valid() {
		return fmt.Errorf("status %q: %w", st, backend.ErrInvalidArgument)
	}
	if st == backend.StatusDeleted {
		return s.DeleteMessage(ctx, messageID)
	}
	_, m, err := s.message(ctx, messageID)
	if err != nil {
		return err
	}
	next, changed := backend.Advance(m.Status, st)
	if !changed {
		return nil
	}
	if err := s.db.SetMessageStatus(messageID, next); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func (s *Service) AddReaction(ctx context.Context, messageID, emoji string) (string, error) {
	p, _, err := s.message(ctx, messageID)
	if err != nil {
		return "", err
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return "", fmt.Errorf("empty emoji: %w", backend.ErrInvalidArgument)
	}
	r := &backend.Reaction{
		ID:        uuid.NewString(),
		MessageID: messageID,
		UserID:    p,
		Emoji:     emoji,
		Timestamp: s.now(),
	}
	if err := s.db.InsertReaction(r); err != nil {
		return "", fmt.Errorf("insert reaction: %w", err)
	}
	s.emit(KindReactionAdded, emoji)
	return r.ID, nil
}

// RemoveReaction deletes one of the caller's own reactions.
func (s *Service) RemoveReaction(ctx context.Context, reactionID string) error {
	p, err := caller(ctx)
	if err != nil {
		return err
	}
	r, err := s.db.GetReaction(reactionID)
	if err != nil {
		return fmt.Errorf("get reaction: %w", err)
	}
	if r == nil {
		return fmt.Errorf("reaction %q: %w", reactionID, backend.ErrNotFound)
	}
	if r.UserID != p {
		return fmt.Errorf("only the author removes a reaction: %w", backend.ErrPermissionDenied)
	}
	if err := s.db.DeleteReaction(reactionID); err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}

func (s *Service) GetReactions(ctx context.Context, messageID string) ([]backend.Reaction, error) {
	if _, _, err := s.message(ctx, messageID); err != nil {
		return nil, err
	}
	rs, err := s.db.ListReactions(messageID)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return rs, nil
}
