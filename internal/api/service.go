// Package api implements the backend operations over the SQLite store.
// Every call acts for the principal carried in its context.
package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	"github.com/heyfriend/heyfriend/internal/store"
	"go.uber.org/zap"
)

// Bus event kinds published after successful writes.
const (
	KindUserRegistered      = "backend.user_registered"
	KindConversationCreated = "backend.conversation_created"
	KindMessageSent         = "backend.message_sent"
	KindMessageDeleted      = "backend.message_deleted"
	KindReactionAdded       = "backend.reaction_added"
)

// Service is the development backend.
type Service struct {
	db      *store.DB
	bus     *bus.Bus
	logger  *zap.Logger
	blobURL string
	now     func() time.Time
}

var _ backend.Backend = (*Service)(nil)

// NewService creates a backend over db. blobURL is the public base URL
// blobs are served under, used to fill in URLs of blobs referenced by ID.
func NewService(db *store.DB, b *bus.Bus, logger *zap.Logger, blobURL string) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:      db,
		bus:     b,
		logger:  logger,
		blobURL: strings.TrimRight(blobURL, "/"),
		now:     store.Now,
	}
}

func (s *Service) emit(kind string, payload any) {
	if s.bus != nil {
		s.bus.Emit(kind, payload)
	}
}

func caller(ctx context.Context) (backend.Principal, error) {
	p, ok := backend.PrincipalFrom(ctx)
	if !ok || p == "" {
		return "", backend.ErrNotReady
	}
	return p, nil
}

// registered returns the caller's profile, failing for callers that have
// not registered.
func (s *Service) registered(ctx context.Context) (*backend.UserProfile, error) {
	p, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.db.GetUser(p)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("caller is not registered: %w", backend.ErrPermissionDenied)
	}
	return u, nil
}

// member returns the caller and the conversation, failing unless the
// caller belongs to it.
func (s *Service) member(ctx context.Context, conversationID string) (backend.Principal, *backend.Conversation, error) {
	p, err := caller(ctx)
	if err != nil {
		return "", nil, err
	}
	c, err := s.db.GetConversation(conversationID)
	if err != nil {
		return "", nil, fmt.Errorf("get conversation: %w", err)
	}
	if c == nil {
		return "", nil, fmt.Errorf("conversation %q: %w", conversationID, backend.ErrNotFound)
	}
	if !c.HasMember(p) {
		return "", nil, fmt.Errorf("not a member of %q: %w", conversationID, backend.ErrPermissionDenied)
	}
	return p, c, nil
}

// resolveBlob checks a blob referenced by ID exists and fills in its URL.
// URL-only blobs pass through.
func (s *Service) resolveBlob(b *backend.Blob) (*backend.Blob, error) {
	if b == nil {
		return nil, nil
	}
	if b.ID == "" {
		if b.URL == "" {
			return nil, fmt.Errorf("blob has neither id nor url: %w", backend.ErrInvalidArgument)
		}
		return &backend.Blob{URL: b.URL}, nil
	}
	stored, err := s.db.GetBlob(b.ID)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("blob %q: %w", b.ID, backend.ErrInvalidArgument)
	}
	url := b.URL
	if url == "" {
		url = s.blobURL + "/blobs/" + b.ID
	}
	return &backend.Blob{ID: b.ID, URL: url}, nil
}
