package sync

import (
	"context"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/query"
	"github.com/heyfriend/heyfriend/internal/status"
	"go.uber.org/zap"
)

// mutate runs fn once the session is ready and, only if it succeeds,
// invalidates the given keys.
func (e *Engine) mutate(op string, fn func() error, invalidate ...query.Key) error {
	if !e.status.IsReady() {
		return backend.ErrNotReady
	}
	if err := fn(); err != nil {
		e.logger.Warn("mutation failed", zap.String("op", op), zap.Error(err))
		return err
	}
	for _, k := range invalidate {
		e.cache.Invalidate(k)
	}
	e.logger.Debug("mutation applied", zap.String("op", op))
	return nil
}

// RegisterUser creates the caller's profile, then waits for it to become
// readable and seeds the cache with it. It is the one mutation allowed
// before the session is ready. A nil profile means the backend accepted the
// registration but had not exposed the profile yet.
func (e *Engine) RegisterUser(ctx context.Context, reg backend.Registration) (*backend.UserProfile, error) {
	if !e.sessionOpen() {
		return nil, backend.ErrNotReady
	}
	if err := e.be.RegisterUser(ctx, reg); err != nil {
		e.logger.Warn("mutation failed", zap.String("op", "registerUser"), zap.Error(err))
		return nil, err
	}
	profile, err := e.awaitProfile(ctx)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		query.SetData(e.cache, KeyCallerProfile, profile)
		if e.status.Current() == status.AuthRequired {
			_ = e.status.Transition(status.Connecting)
			_ = e.status.Transition(status.Ready)
		}
	}
	e.cache.Invalidate(KeyCallerProfile)
	return profile, nil
}

func (e *Engine) awaitProfile(ctx context.Context) (*backend.UserProfile, error) {
	for attempt := 0; attempt < e.RegisterAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(e.RegisterDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		profile, err := e.be.GetCallerUserProfile(ctx)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			return profile, nil
		}
	}
	return nil, nil
}

func (e *Engine) UpdateUser(ctx context.Context, upd backend.ProfileUpdate) error {
	return e.mutate("updateUser", func() error {
		return e.be.UpdateUser(ctx, upd)
	}, KeyCallerProfile)
}

func (e *Engine) SaveCallerUserProfile(ctx context.Context, profile backend.UserProfile) error {
	return e.mutate("saveCallerUserProfile", func() error {
		return e.be.SaveCallerUserProfile(ctx, profile)
	}, KeyCallerProfile)
}

func (e *Engine) AssignCallerUserRole(ctx context.Context, user backend.Principal, role backend.UserRole) error {
	return e.mutate("assignCallerUserRole", func() error {
		return e.be.AssignCallerUserRole(ctx, user, role)
	}, KeyCallerRole, KeyIsAdmin)
}

func (e *Engine) AddContact(ctx context.Context, phone, label string) error {
	return e.mutate("addContact", func() error {
		return e.be.AddContact(ctx, phone, label)
	}, KeyContacts)
}

func (e *Engine) RemoveContact(ctx context.Context, phone string) error {
	return e.mutate("removeContact", func() error {
		return e.be.RemoveContact(ctx, phone)
	}, KeyContacts)
}

func (e *Engine) CreateConversation(ctx context.Context, name, description string, isGroup bool, members []backend.Principal) (string, error) {
	var id string
	err := e.mutate("createConversation", func() error {
		var err error
		id, err = e.be.CreateConversation(ctx, name, description, isGroup, members)
		return err
	}, KeyConversations)
	return id, err
}

func (e *Engine) LeaveConversation(ctx context.Context, conversationID string) error {
	return e.mutate("leaveConversation", func() error {
		return e.be.LeaveConversation(ctx, conversationID)
	}, KeyConversations)
}

func (e *Engine) AddMember(ctx context.Context, conversationID string, member backend.Principal) error {
	return e.mutate("addMember", func() error {
		return e.be.AddMember(ctx, conversationID, member)
	}, ConversationKey(conversationID))
}

func (e *Engine) RemoveMember(ctx context.Context, conversationID string, member backend.Principal) error {
	return e.mutate("removeMember", func() error {
		return e.be.RemoveMember(ctx, conversationID, member)
	}, ConversationKey(conversationID))
}

// SendMessage posts a message and refreshes the thread and the list.
func (e *Engine) SendMessage(ctx context.Context, conversationID, content string, mediaType backend.MediaType, media *backend.Blob) (string, error) {
	var id string
	err := e.mutate("sendMessage", func() error {
		var err error
		id, err = e.be.SendMessage(ctx, conversationID, content, mediaType, media)
		return err
	}, MessagesKey(conversationID), KeyConversations)
	return id, err
}

func (e *Engine) UpdateMessageStatus(ctx context.Context, conversationID, messageID string, st backend.MessageStatus) error {
	return e.mutate("updateMessageStatus", func() error {
		return e.be.UpdateMessageStatus(ctx, messageID, st)
	}, MessagesKey(conversationID))
}

func (e *Engine) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	return e.mutate("deleteMessage", func() error {
		return e.be.DeleteMessage(ctx, messageID)
	}, MessagesKey(conversationID))
}

func (e *Engine) MarkConversationAsRead(ctx context.Context, conversationID string) error {
	return e.mutate("markConversationAsRead", func() error {
		return e.be.MarkConversationAsRead(ctx, conversationID)
	}, KeyConversations)
}

func (e *Engine) AddReaction(ctx context.Context, messageID, emoji string) (string, error) {
	var id string
	err := e.mutate("addReaction", func() error {
		var err error
		id, err = e.be.AddReaction(ctx, messageID, emoji)
		return err
	}, ReactionsKey(messageID))
	return id, err
}

func (e *Engine) RemoveReaction(ctx context.Context, messageID, reactionID string) error {
	return e.mutate("removeReaction", func() error {
		return e.be.RemoveReaction(ctx, reactionID)
	}, ReactionsKey(messageID))
}
