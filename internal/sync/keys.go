package sync

import (
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/query"
)

// Cache keys for every backend read.
var (
	KeyCallerProfile = query.Key{"callerProfile"}
	KeyCallerRole    = query.Key{"callerRole"}
	KeyIsAdmin       = query.Key{"isAdmin"}
	KeyContacts      = query.Key{"contacts"}
	KeyConversations = query.Key{"conversations"}
	KeyTotalUnread   = query.Key{"totalUnread"}
	KeyUnreadCounts  = query.Key{"unreadCounts"}
)

func UserProfileKey(p backend.Principal) query.Key { return query.Key{"userProfile", string(p)} }

func SearchKey(term string) query.Key { return query.Key{"searchUsers", term} }

func ConversationKey(id string) query.Key { return query.Key{"conversation", id} }

func MessagesKey(conversationID string) query.Key { return query.Key{"messages", conversationID} }

func ReactionsKey(messageID string) query.Key { return query.Key{"reactions", messageID} }

// MessagePageSize is how many of the most recent messages a thread loads.
const MessagePageSize = 100

var (
	policyCallerProfile = query.Policy{StaleTime: 30 * time.Second, Retry: 2, RetryDelay: 1500 * time.Millisecond}
	policyRole          = query.Policy{StaleTime: 60 * time.Second}
	policyUserProfile   = query.Policy{StaleTime: 60 * time.Second}
	policySearch        = query.Policy{StaleTime: 10 * time.Second}
	policyContacts      = query.Policy{StaleTime: 30 * time.Second}
	policyConversations = query.Policy{StaleTime: 2 * time.Second, PollInterval: 5 * time.Second}
	policyConversation  = query.Policy{StaleTime: 30 * time.Second}
	policyMessages      = query.Policy{StaleTime: 1 * time.Second, PollInterval: 3 * time.Second}
	policyReactions     = query.Policy{StaleTime: 5 * time.Second}
	policyUnread        = query.Policy{StaleTime: 3 * time.Second, PollInterval: 5 * time.Second}
)
