package rpc

import "github.com/heyfriend/heyfriend/internal/backend"

type empty struct{}

type registerRequest struct {
	Registration backend.Registration `json:"registration"`
}

type updateUserRequest struct {
	Update backend.ProfileUpdate `json:"update"`
}

type saveProfileRequest struct {
	Profile backend.UserProfile `json:"profile"`
}

type userRequest struct {
	User backend.Principal `json:"user"`
}

type profileReply struct {
	Profile *backend.UserProfile `json:"profile,omitempty"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type profilesReply struct {
	Profiles []backend.UserProfile `json:"profiles"`
}

type contactRequest struct {
	PhoneNumber  string `json:"phoneNumber"`
	ContactLabel string `json:"contactLabel,omitempty"`
}

type contactsReply struct {
	Contacts []backend.Contact `json:"contacts"`
}

type createConversationRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	IsGroup     bool                `json:"isGroup"`
	Members     []backend.Principal `json:"members"`
}

type idReply struct {
	ID string `json:"id"`
}

type conversationRequest struct {
	ConversationID string `json:"conversationId"`
}

type conversationReply struct {
	Conversation *backend.Conversation `json:"conversation"`
}

type summariesReply struct {
	Summaries []backend.ConversationSummary `json:"summaries"`
}

type memberRequest struct {
	ConversationID string            `json:"conversationId"`
	Member         backend.Principal `json:"member"`
}

type messagesRequest struct {
	ConversationID string `json:"conversationId"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset"`
}

type messagesReply struct {
	Messages []backend.Message `json:"messages"`
}

type sendMessageRequest struct {
	ConversationID string            `json:"conversationId"`
	Content        string            `json:"content"`
	MediaType      backend.MediaType `json:"mediaType"`
	Media          *backend.Blob     `json:"media,omitempty"`
}

type messageRequest struct {
	MessageID string `json:"messageId"`
}

type messageStatusRequest struct {
	MessageID string                `json:"messageId"`
	Status    backend.MessageStatus `json:"status"`
}

type reactionRequest struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type reactionIDRequest struct {
	ReactionID string `json:"reactionId"`
}

type reactionsReply struct {
	Reactions []backend.Reaction `json:"reactions"`
}

type countReply struct {
	Count int `json:"count"`
}

type unreadCountsReply struct {
	Counts []backend.UnreadCount `json:"counts"`
}

type roleRequest struct {
	User backend.Principal `json:"user"`
	Role backend.UserRole  `json:"role"`
}

type roleReply struct {
	Role backend.UserRole `json:"role"`
}

type boolReply struct {
	Value bool `json:"value"`
}
