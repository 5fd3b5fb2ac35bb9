package sync

import (
	"testing"

	"github.com/heyfriend/heyfriend/internal/backend"
)

func TestGroupReactions(t *testing.T) {
	rs := []backend.Reaction{
		{ID: "1", UserID: "a", Emoji: "😂"},
		{ID: "2", UserID: "b", Emoji: "👍"},
		{ID: "3", UserID: "a", Emoji: "😂"},
		{ID: "4", UserID: "c", Emoji: "😂"},
	}
	groups := GroupReactions(rs)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Emoji != "😂" || groups[0].Count != 3 {
		t.Errorf("first group = %+v, want 😂 x3", groups[0])
	}
	if groups[1].Emoji != "👍" || groups[1].Count != 1 {
		t.Errorf("second group = %+v, want 👍 x1", groups[1])
	}
	if !groups[0].By("c") || groups[1].By("a") {
		t.Error("By() reports the wrong users")
	}
	if r, ok := OwnReaction(rs, "a", "😂"); !ok || r.ID != "1" {
		t.Errorf("OwnReaction() = %+v, %v", r, ok)
	}
	if _, ok := OwnReaction(rs, "a", "👍"); ok {
		t.Error("OwnReaction() found a reaction a never made")
	}
	if r, ok := LastOwnReaction(rs, "a"); !ok || r.ID != "3" {
		t.Errorf("LastOwnReaction(a) = %+v, %v, want 3", r, ok)
	}
	if _, ok := LastOwnReaction(rs, "d"); ok {
		t.Error("LastOwnReaction() found a reaction d never made")
	}
}

type recorder struct{ got []string }

func (r *recorder) Text(backend.Message)    { r.got = append(r.got, "text") }
func (r *recorder) Emoji(backend.Message)   { r.got = append(r.got, "emoji") }
func (r *recorder) Sticker(backend.Message) { r.got = append(r.got, "sticker") }
func (r *recorder) Image(backend.Message)   { r.got = append(r.got, "image") }
func (r *recorder) Video(backend.Message)   { r.got = append(r.got, "video") }
func (r *recorder) Audio(backend.Message)   { r.got = append(r.got, "audio") }
func (r *recorder) Voice(backend.Message)   { r.got = append(r.got, "voice") }
func (r *recorder) GIF(backend.Message)     { r.got = append(r.got, "gif") }

func TestRenderMedia(t *testing.T) {
	for _, mt := range backend.MediaTypes {
		r := &recorder{}
		if !RenderMedia(backend.Message{MediaType: mt}, r) {
			t.Errorf("RenderMedia(%s) = false", mt)
		}
		if len(r.got) != 1 || r.got[0] != string(mt) {
			t.Errorf("RenderMedia(%s) called %v", mt, r.got)
		}
	}
	r := &recorder{}
	if RenderMedia(backend.Message{MediaType: "hologram"}, r) || len(r.got) != 0 {
		t.Error("unknown media type rendered something")
	}
}

func TestMediaTypeForContentType(t *testing.T) {
	tests := map[string]backend.MediaType{
		"video/mp4":       backend.MediaVideo,
		"audio/ogg":       backend.MediaAudio,
		"image/png":       backend.MediaImage,
		"application/pdf": backend.MediaImage,
		"":                backend.MediaImage,
	}
	for ct, want := range tests {
		if got := MediaTypeForContentType(ct); got != want {
			t.Errorf("MediaTypeForContentType(%q) = %s, want %s", ct, got, want)
		}
	}
}
