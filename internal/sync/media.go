package sync

import (
	"strings"

	"github.com/heyfriend/heyfriend/internal/backend"
)

// MediaRenderer draws one kind of message body each.
type MediaRenderer interface {
	Text(m backend.Message)
	Emoji(m backend.Message)
	Sticker(m backend.Message)
	Image(m backend.Message)
	Video(m backend.Message)
	Audio(m backend.Message)
	Voice(m backend.Message)
	GIF(m backend.Message)
}

// RenderMedia dispatches m to the renderer for its media type. It reports
// false, rendering nothing, for a type it does not know.
func RenderMedia(m backend.Message, r MediaRenderer) bool {
	switch m.MediaType {
	case backend.MediaText:
		r.Text(m)
	case backend.MediaEmoji:
		r.Emoji(m)
	case backend.MediaSticker:
		r.Sticker(m)
	case backend.MediaImage:
		r.Image(m)
	case backend.MediaVideo:
		r.Video(m)
	case backend.MediaAudio:
		r.Audio(m)
	case backend.MediaVoice:
		r.Voice(m)
	case backend.MediaGIF:
		r.GIF(m)
	default:
		return false
	}
	return true
}

// MediaTypeForContentType picks the media type of an attachment from its
// MIME type. Anything that is not video or audio is sent as an image.
func MediaTypeForContentType(contentType string) backend.MediaType {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return backend.MediaVideo
	case strings.HasPrefix(contentType, "audio/"):
		return backend.MediaAudio
	}
	return backend.MediaImage
}
