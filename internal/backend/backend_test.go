package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		cur, next MessageStatus
		want      MessageStatus
		changed   bool
	}{
		{StatusSent, StatusReceived, StatusReceived, true},
		{StatusSent, StatusRead, StatusRead, true},
		{StatusRead, StatusReceived, StatusRead, false},
		{StatusRead, StatusSent, StatusRead, false},
		{StatusRead, StatusDeleted, StatusDeleted, true},
		{StatusDeleted, StatusRead, StatusDeleted, false},
		{StatusDeleted, StatusSent, StatusDeleted, false},
		{StatusSent, "bogus", StatusSent, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.cur)+"->"+string(tt.next), func(t *testing.T) {
			got, changed := Advance(tt.cur, tt.next)
			if got != tt.want || changed != tt.changed {
				t.Errorf("Advance(%s, %s) = %s, %v; want %s, %v", tt.cur, tt.next, got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestDeletedIsTerminal(t *testing.T) {
	s := StatusDeleted
	for _, next := range []MessageStatus{StatusSent, StatusReceived, StatusRead, StatusDeleted} {
		s, _ = Advance(s, next)
		if s != StatusDeleted {
			t.Fatalf("status after %s = %s, want deleted", next, s)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !MediaVoice.Valid() || MediaType("hologram").Valid() {
		t.Error("MediaType.Valid() wrong")
	}
	if !GenderFemale.Valid() || Gender("").Valid() {
		t.Error("Gender.Valid() wrong")
	}
	if !RoleGuest.Valid() || UserRole("root").Valid() {
		t.Error("UserRole.Valid() wrong")
	}
}

func TestPrincipalShort(t *testing.T) {
	if got := Principal("abcdefghij").Short(6); got != "abcdef" {
		t.Errorf("Short(6) = %q", got)
	}
	if got := Principal("abc").Short(6); got != "abc" {
		t.Errorf("Short(6) on short principal = %q", got)
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := WithPrincipal(context.Background(), "hf-1")
	if p, ok := PrincipalFrom(ctx); !ok || p != "hf-1" {
		t.Errorf("PrincipalFrom() = %q, %v", p, ok)
	}
	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Error("PrincipalFrom(empty) reported a principal")
	}
}

func TestBlobFromBytes(t *testing.T) {
	var got []int
	b := BlobFromBytes([]byte("img")).WithUploadProgress(func(p int) { got = append(got, p) })
	if !b.Pending() {
		t.Fatal("Pending() = false for unuploaded bytes")
	}
	b.Progress(50)
	b.Hosted("b1", "http://blobs/b1")
	if b.Pending() || b.DirectURL() != "http://blobs/b1" {
		t.Errorf("after Hosted: pending=%v url=%q", b.Pending(), b.DirectURL())
	}
	if len(got) != 1 || got[0] != 50 {
		t.Errorf("progress = %v", got)
	}
	data, err := b.Bytes(context.Background(), nil)
	if err != nil || string(data) != "img" {
		t.Errorf("Bytes() = %q, %v", data, err)
	}
}

func TestBlobFromURLFetches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	b := BlobFromURL(srv.URL + "/blobs/x")
	if b.Pending() {
		t.Error("URL blob reported pending")
	}
	data, err := b.Bytes(context.Background(), srv.Client())
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if string(data) != "remote" {
		t.Errorf("Bytes() = %q", data)
	}
}
