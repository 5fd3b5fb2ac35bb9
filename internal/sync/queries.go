package sync

import (
	"context"
	"regexp"
	"strings"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/query"
)

var phoneTerm = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

// IsPhoneTerm reports whether a search term should match phone numbers
// rather than display names.
func IsPhoneTerm(term string) bool {
	return phoneTerm.MatchString(term)
}

func (e *Engine) CallerProfileQuery() query.Query[*backend.UserProfile] {
	return query.Query[*backend.UserProfile]{
		Key:    KeyCallerProfile,
		Policy: policyCallerProfile,
		Fetch:  e.be.GetCallerUserProfile,
	}
}

// CallerProfile returns the caller's profile, or nil when the caller is
// unregistered or the profile could not be fetched.
func (e *Engine) CallerProfile(ctx context.Context) *backend.UserProfile {
	return query.Read(ctx, e.cache, e.CallerProfileQuery()).Data
}

func (e *Engine) CallerRoleQuery() query.Query[backend.UserRole] {
	return query.Query[backend.UserRole]{
		Key:    KeyCallerRole,
		Policy: policyRole,
		Fetch:  e.be.GetCallerUserRole,
	}
}

func (e *Engine) CallerRole(ctx context.Context) query.Result[backend.UserRole] {
	return query.Read(ctx, e.cache, e.CallerRoleQuery())
}

func (e *Engine) IsAdminQuery() query.Query[bool] {
	return query.Query[bool]{
		Key:    KeyIsAdmin,
		Policy: policyRole,
		Fetch:  e.be.IsCallerAdmin,
	}
}

func (e *Engine) IsAdmin(ctx context.Context) query.Result[bool] {
	return query.Read(ctx, e.cache, e.IsAdminQuery())
}

func (e *Engine) UserProfileQuery(p backend.Principal) query.Query[*backend.UserProfile] {
	return query.Query[*backend.UserProfile]{
		Key:    UserProfileKey(p),
		Policy: policyUserProfile,
		Fetch: func(ctx context.Context) (*backend.UserProfile, error) {
			return e.be.GetUserProfile(ctx, p)
		},
	}
}

func (e *Engine) UserProfile(ctx context.Context, p backend.Principal) query.Result[*backend.UserProfile] {
	return query.Read(ctx, e.cache, e.UserProfileQuery(p))
}

// SearchUsersQuery searches by phone number when the term looks like one
// and by display name otherwise. term must already be trimmed.
func (e *Engine) SearchUsersQuery(term string) query.Query[[]backend.UserProfile] {
	return query.Query[[]backend.UserProfile]{
		Key:    SearchKey(term),
		Policy: policySearch,
		Fetch: func(ctx context.Context) ([]backend.UserProfile, error) {
			if IsPhoneTerm(term) {
				return e.be.SearchUsersByPhoneNumber(ctx, term)
			}
			return e.be.SearchUsersByDisplayName(ctx, term)
		},
	}
}

// SearchUsers finds users matching term. An empty term matches nobody and
// never reaches the backend.
func (e *Engine) SearchUsers(ctx context.Context, term string) query.Result[[]backend.UserProfile] {
	term = strings.TrimSpace(term)
	if term == "" {
		return query.Result[[]backend.UserProfile]{Data: []backend.UserProfile{}, Loaded: true}
	}
	return query.Read(ctx, e.cache, e.SearchUsersQuery(term))
}

func (e *Engine) ContactsQuery() query.Query[[]backend.Contact] {
	return query.Query[[]backend.Contact]{
		Key:    KeyContacts,
		Policy: policyContacts,
		Fetch:  e.be.GetContacts,
	}
}

func (e *Engine) Contacts(ctx context.Context) query.Result[[]backend.Contact] {
	return query.Read(ctx, e.cache, e.ContactsQuery())
}

func (e *Engine) ConversationsQuery() query.Query[[]backend.ConversationSummary] {
	return query.Query[[]backend.ConversationSummary]{
		Key:    KeyConversations,
		Policy: policyConversations,
		Fetch:  e.be.GetConversations,
	}
}

func (e *Engine) Conversations(ctx context.Context) query.Result[[]backend.ConversationSummary] {
	return query.Read(ctx, e.cache, e.ConversationsQuery())
}

func (e *Engine) ConversationQuery(id string) query.Query[*backend.Conversation] {
	return query.Query[*backend.Conversation]{
		Key:    ConversationKey(id),
		Policy: policyConversation,
		Fetch: func(ctx context.Context) (*backend.Conversation, error) {
			return e.be.GetConversation(ctx, id)
		},
	}
}

func (e *Engine) Conversation(ctx context.Context, id string) query.Result[*backend.Conversation] {
	return query.Read(ctx, e.cache, e.ConversationQuery(id))
}

// MessagesQuery loads the most recent page of a conversation, oldest first.
func (e *Engine) MessagesQuery(conversationID string) query.Query[[]backend.Message] {
	return query.Query[[]backend.Message]{
		Key:    MessagesKey(conversationID),
		Policy: policyMessages,
		Fetch: func(ctx context.Context) ([]backend.Message, error) {
			return e.be.GetMessages(ctx, conversationID, MessagePageSize, 0)
		},
	}
}

func (e *Engine) Messages(ctx context.Context, conversationID string) query.Result[[]backend.Message] {
	return query.Read(ctx, e.cache, e.MessagesQuery(conversationID))
}

func (e *Engine) ReactionsQuery(messageID string) query.Query[[]backend.Reaction] {
	return query.Query[[]backend.Reaction]{
		Key:    ReactionsKey(messageID),
		Policy: policyReactions,
		Fetch: func(ctx context.Context) ([]backend.Reaction, error) {
			return e.be.GetReactions(ctx, messageID)
		},
	}
}

func (e *Engine) Reactions(ctx context.Context, messageID string) query.Result[[]backend.Reaction] {
	return query.Read(ctx, e.cache, e.ReactionsQuery(messageID))
}

func (e *Engine) TotalUnreadQuery() query.Query[int] {
	return query.Query[int]{
		Key:    KeyTotalUnread,
		Policy: policyUnread,
		Fetch:  e.be.GetTotalUnread,
	}
}

func (e *Engine) TotalUnread(ctx context.Context) query.Result[int] {
	return query.Read(ctx, e.cache, e.TotalUnreadQuery())
}

func (e *Engine) UnreadCountsQuery() query.Query[[]backend.UnreadCount] {
	return query.Query[[]backend.UnreadCount]{
		Key:    KeyUnreadCounts,
		Policy: policyUnread,
		Fetch:  e.be.GetUnreadCounts,
	}
}

func (e *Engine) UnreadCounts(ctx context.Context) query.Result[[]backend.UnreadCount] {
	return query.Read(ctx, e.cache, e.UnreadCountsQuery())
}
