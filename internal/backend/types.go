// Package backend defines the messaging backend's data model and the
// operations a client may invoke on it.
package backend

import "time"

// Principal is an opaque caller identity.
type Principal string

// Short returns the first n runes of the principal, or all of it when shorter.
func (p Principal) Short(n int) string {
	r := []rune(string(p))
	if len(r) <= n {
		return string(p)
	}
	return string(r[:n])
}

type Gender string

const (
	GenderOther  Gender = "other"
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// Valid reports whether g is a known gender value.
func (g Gender) Valid() bool {
	switch g {
	case GenderOther, GenderFemale, GenderMale:
		return true
	}
	return false
}

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

// MediaType classifies a message payload.
type MediaType string

const (
	MediaText    MediaType = "text"
	MediaEmoji   MediaType = "emoji"
	MediaSticker MediaType = "sticker"
	MediaImage   MediaType = "image"
	MediaVideo   MediaType = "video"
	MediaAudio   MediaType = "audio"
	MediaVoice   MediaType = "voice"
	MediaGIF     MediaType = "gif"
)

// MediaTypes lists every known media type.
var MediaTypes = []MediaType{MediaText, MediaEmoji, MediaSticker, MediaImage, MediaVideo, MediaAudio, MediaVoice, MediaGIF}

func (m MediaType) Valid() bool {
	for _, known := range MediaTypes {
		if m == known {
			return true
		}
	}
	return false
}

// MessageStatus is a message's delivery state. Statuses only move forward
// (sent, received, read) and deleted is terminal.
type MessageStatus string

const (
	StatusSent     MessageStatus = "sent"
	StatusReceived MessageStatus = "received"
	StatusRead     MessageStatus = "read"
	StatusDeleted  MessageStatus = "deleted"
)

func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusReceived:
		return 2
	case StatusRead:
		return 3
	case StatusDeleted:
		return 4
	}
	return 0
}

func (s MessageStatus) Valid() bool { return s.rank() > 0 }

// Advance returns the status a message in state cur holds after an update
// to next, and whether it changed.
func Advance(cur, next MessageStatus) (MessageStatus, bool) {
	if cur == StatusDeleted || !next.Valid() {
		return cur, false
	}
	if next.rank() > cur.rank() {
		return next, true
	}
	return cur, false
}

type UserProfile struct {
	Principal      Principal `json:"principal"`
	DisplayName    string    `json:"displayName"`
	PhoneNumber    string    `json:"phoneNumber"`
	Gender         Gender    `json:"gender"`
	Address        string    `json:"address"`
	DateOfBirth    time.Time `json:"dateOfBirth"`
	CreatedAt      time.Time `json:"createdAt"`
	ProfilePicture *Blob     `json:"profilePicture,omitempty"`
}

// Registration carries the fields of a new profile.
type Registration struct {
	PhoneNumber    string    `json:"phoneNumber"`
	DisplayName    string    `json:"displayName"`
	Gender         Gender    `json:"gender"`
	Address        string    `json:"address"`
	DateOfBirth    time.Time `json:"dateOfBirth"`
	ProfilePicture *Blob     `json:"profilePicture,omitempty"`
}

// ProfileUpdate carries the owner-editable profile fields.
type ProfileUpdate struct {
	DisplayName    string `json:"displayName"`
	Gender         Gender `json:"gender"`
	Address        string `json:"address"`
	ProfilePicture *Blob  `json:"profilePicture,omitempty"`
}

type Conversation struct {
	ID          string      `json:"id"`
	Members     []Principal `json:"members"`
	IsGroup     bool        `json:"isGroup"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// HasMember reports whether p belongs to the conversation.
func (c Conversation) HasMember(p Principal) bool {
	for _, m := range c.Members {
		if m == p {
			return true
		}
	}
	return false
}

// ConversationSummary is the read-only list projection of a conversation.
type ConversationSummary struct {
	Conversation Conversation `json:"conversation"`
	LastMessage  *Message     `json:"lastMessage,omitempty"`
	UnreadCount  int          `json:"unreadCount"`
}

type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	Sender         Principal     `json:"sender"`
	Content        string        `json:"content"`
	MediaType      MediaType     `json:"mediaType"`
	Status         MessageStatus `json:"status"`
	Timestamp      time.Time     `json:"timestamp"`
	Media          *Blob         `json:"media,omitempty"`
}

type Reaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"messageId"`
	UserID    Principal `json:"userId"`
	Emoji     string    `json:"emoji"`
	Timestamp time.Time `json:"timestamp"`
}

type Contact struct {
	Owner        Principal `json:"owner"`
	PhoneNumber  string    `json:"phoneNumber"`
	ContactLabel string    `json:"contactLabel"`
	DisplayName  string    `json:"displayName"`
}

// UnreadCount pairs a conversation with the caller's unread messages in it.
type UnreadCount struct {
	ConversationID string `json:"conversationId"`
	Count          int    `json:"count"`
}
