// Package outbox sends what the user composes. At most one send is in
// flight per composer; attempts are never retried automatically.
package outbox

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/bus"
	hsync "github.com/heyfriend/heyfriend/internal/sync"
	"go.uber.org/zap"
)

// ErrBusy is returned while another send from the same composer is in flight.
var ErrBusy = errors.New("a send is already in flight")

// VoiceNoteContent is the text carried by voice messages.
const VoiceNoteContent = "Voice note"

// MessageSender posts one message to the backend.
type MessageSender interface {
	SendMessage(ctx context.Context, conversationID, content string, mediaType backend.MediaType, media *backend.Blob) (string, error)
}

// Attachment is a file picked for sending.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Draft is the composer's content when the user hits send.
type Draft struct {
	Text       string
	Attachment *Attachment
}

// Event payloads published on the bus.
type (
	SendEvent struct {
		ClientID       string
		ConversationID string
		MessageID      string
		MediaType      backend.MediaType
		Err            error
	}
	ProgressEvent struct {
		ClientID       string
		ConversationID string
		Percent        int
	}
)

// Sender sends a conversation's drafts.
type Sender struct {
	conversationID string
	sender         MessageSender
	bus            *bus.Bus
	logger         *zap.Logger
	inFlight       atomic.Bool
}

// NewSender creates a sender for one conversation.
func NewSender(conversationID string, sender MessageSender, b *bus.Bus, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		conversationID: conversationID,
		sender:         sender,
		bus:            b,
		logger:         logger,
	}
}

// Busy reports whether a send is in flight.
func (s *Sender) Busy() bool { return s.inFlight.Load() }

// Submit sends d. An attachment wins over text and is sent with the file
// name as content; otherwise the trimmed text is sent. A draft with
// neither is ignored and reports false.
func (s *Sender) Submit(ctx context.Context, d Draft) (bool, error) {
	if a := d.Attachment; a != nil {
		mt := hsync.MediaTypeForContentType(a.ContentType)
		return true, s.send(ctx, a.Name, mt, backend.BlobFromBytes(a.Data))
	}
	text := strings.TrimSpace(d.Text)
	if text == "" {
		return false, nil
	}
	return true, s.send(ctx, text, backend.MediaText, nil)
}

func (s *Sender) SendEmoji(ctx context.Context, emoji string) error {
	return s.send(ctx, emoji, backend.MediaEmoji, nil)
}

func (s *Sender) SendSticker(ctx context.Context, sticker string) error {
	return s.send(ctx, sticker, backend.MediaSticker, nil)
}

// SendGIF sends a hosted GIF by URL.
func (s *Sender) SendGIF(ctx context.Context, url string) error {
	return s.send(ctx, url, backend.MediaGIF, nil)
}

// SendVoice sends a recorded voice note.
func (s *Sender) SendVoice(ctx context.Context, audio []byte) error {
	return s.send(ctx, VoiceNoteContent, backend.MediaVoice, backend.BlobFromBytes(audio))
}

func (s *Sender) send(ctx context.Context, content string, mt backend.MediaType, media *backend.Blob) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.inFlight.Store(false)

	clientID := uuid.NewString()
	if media != nil {
		media = media.WithUploadProgress(func(pct int) {
			s.bus.Emit("message.upload_progress", ProgressEvent{ClientID: clientID, ConversationID: s.conversationID, Percent: pct})
		})
	}
	s.bus.Emit("message.sending", SendEvent{ClientID: clientID, ConversationID: s.conversationID, MediaType: mt})

	id, err := s.sender.SendMessage(ctx, s.conversationID, content, mt, media)
	if err != nil {
		s.logger.Error("failed to send message", zap.Error(err),
			zap.String("client_id", clientID), zap.String("conversation", s.conversationID))
		s.bus.Emit("message.send_failed", SendEvent{ClientID: clientID, ConversationID: s.conversationID, MediaType: mt, Err: err})
		return err
	}

	s.logger.Info("message sent", zap.String("client_id", clientID), zap.String("message_id", id))
	s.bus.Emit("message.send_ack", SendEvent{ClientID: clientID, ConversationID: s.conversationID, MessageID: id, MediaType: mt})
	return nil
}
