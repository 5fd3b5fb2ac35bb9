package backend

import "context"

// Backend is the messaging backend's RPC surface. Every call acts as the
// caller identity carried by ctx or by the transport.
type Backend interface {
	RegisterUser(ctx context.Context, reg Registration) error
	UpdateUser(ctx context.Context, upd ProfileUpdate) error
	SaveCallerUserProfile(ctx context.Context, profile UserProfile) error
	// GetCallerUserProfile returns nil without error when the caller has
	// not registered.
	GetCallerUserProfile(ctx context.Context) (*UserProfile, error)
	GetUserProfile(ctx context.Context, user Principal) (*UserProfile, error)
	// GetProfile is GetCallerUserProfile that fails with ErrNotFound.
	GetProfile(ctx context.Context) (*UserProfile, error)
	SearchUsersByDisplayName(ctx context.Context, name string) ([]UserProfile, error)
	SearchUsersByPhoneNumber(ctx context.Context, phone string) ([]UserProfile, error)

	AddContact(ctx context.Context, phone, label string) error
	RemoveContact(ctx context.Context, phone string) error
	GetContacts(ctx context.Context) ([]Contact, error)

	CreateConversation(ctx context.Context, name, description string, isGroup bool, members []Principal) (string, error)
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)
	GetConversations(ctx context.Context) ([]ConversationSummary, error)
	LeaveConversation(ctx context.Context, conversationID string) error
	AddMember(ctx context.Context, conversationID string, member Principal) error
	RemoveMember(ctx context.Context, conversationID string, member Principal) error

	// GetMessages returns up to limit messages in ascending time order,
	// skipping the offset most recent ones.
	GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]Message, error)
	SendMessage(ctx context.Context, conversationID, content string, mediaType MediaType, media *Blob) (string, error)
	DeleteMessage(ctx context.Context, messageID string) error
	UpdateMessageStatus(ctx context.Context, messageID string, status MessageStatus) error

	AddReaction(ctx context.Context, messageID, emoji string) (string, error)
	RemoveReaction(ctx context.Context, reactionID string) error
	GetReactions(ctx context.Context, messageID string) ([]Reaction, error)

	GetTotalUnread(ctx context.Context) (int, error)
	GetUnreadCounts(ctx context.Context) ([]UnreadCount, error)
	MarkConversationAsRead(ctx context.Context, conversationID string) error

	AssignCallerUserRole(ctx context.Context, user Principal, role UserRole) error
	GetCallerUserRole(ctx context.Context) (UserRole, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
}
