package api

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/store"
)

func testService(t *testing.T) *Service {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := NewService(db, nil, nil, "http://blobs.test")
	var mu sync.Mutex
	clock := time.UnixMilli(1_700_000_000_000).UTC()
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Millisecond)
		return clock
	}
	return s
}

func as(p backend.Principal) context.Context {
	return backend.WithPrincipal(context.Background(), p)
}

func register(t *testing.T, s *Service, p backend.Principal, phone, name string) {
	t.Helper()
	if err := s.RegisterUser(as(p), backend.Registration{PhoneNumber: phone, DisplayName: name}); err != nil {
		t.Fatalf("RegisterUser(%s) error = %v", p, err)
	}
}

func TestRegisterUser(t *testing.T) {
	s := testService(t)

	if err := s.RegisterUser(context.Background(), backend.Registration{PhoneNumber: "1", DisplayName: "x"}); !errors.Is(err, backend.ErrNotReady) {
		t.Errorf("anonymous RegisterUser() error = %v, want ErrNotReady", err)
	}
	register(t, s, "alice", "0711", "Alice")
	register(t, s, "bob", "0722", "Bob")

	tests := []struct {
		name string
		p    backend.Principal
		reg  backend.Registration
		want error
	}{
		{"twice", "alice", backend.Registration{PhoneNumber: "0799", DisplayName: "A"}, backend.ErrAlreadyExists},
		{"phone taken", "carol", backend.Registration{PhoneNumber: "0711", DisplayName: "C"}, backend.ErrAlreadyExists},
		{"no phone", "carol", backend.Registration{DisplayName: "C"}, backend.ErrInvalidArgument},
		{"bad gender", "carol", backend.Registration{PhoneNumber: "0733", DisplayName: "C", Gender: "x"}, backend.ErrInvalidArgument},
		{"unknown blob", "carol", backend.Registration{PhoneNumber: "0733", DisplayName: "C", ProfilePicture: &backend.Blob{ID: "nope"}}, backend.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.RegisterUser(as(tt.p), tt.reg); !errors.Is(err, tt.want) {
				t.Errorf("RegisterUser() error = %v, want %v", err, tt.want)
			}
		})
	}

	if role, _ := s.GetCallerUserRole(as("alice")); role != backend.RoleAdmin {
		t.Errorf("first user role = %s, want admin", role)
	}
	if role, _ := s.GetCallerUserRole(as("bob")); role != backend.RoleUser {
		t.Errorf("second user role = %s, want user", role)
	}
	if role, _ := s.GetCallerUserRole(as("nobody")); role != backend.RoleGuest {
		t.Errorf("unregistered role = %s, want guest", role)
	}
}

func TestProfiles(t *testing.T) {
	s := testService(t)

	p, err := s.GetCallerUserProfile(as("alice"))
	if err != nil || p != nil {
		t.Fatalf("GetCallerUserProfile() before register = %+v, %v, want nil, nil", p, err)
	}
	if _, err := s.GetProfile(as("alice")); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrNotFound", err)
	}
	register(t, s, "alice", "0711", "Alice")

	if err := s.UpdateUser(as("alice"), backend.ProfileUpdate{DisplayName: "Alice K", Address: "Arusha"}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	p, err = s.GetProfile(as("alice"))
	if err != nil {
		t.Fatal(err)
	}
	if p.DisplayName != "Alice K" || p.Address != "Arusha" || p.PhoneNumber != "0711" {
		t.Errorf("profile after update = %+v", p)
	}
	if err := s.UpdateUser(as("bob"), backend.ProfileUpdate{DisplayName: "Bob"}); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("UpdateUser() unregistered error = %v, want ErrPermissionDenied", err)
	}

	register(t, s, "bob", "0722", "Bob")
	saved := *p
	saved.PhoneNumber = "0722"
	if err := s.SaveCallerUserProfile(as("alice"), saved); !errors.Is(err, backend.ErrAlreadyExists) {
		t.Errorf("SaveCallerUserProfile() with a taken phone error = %v, want ErrAlreadyExists", err)
	}
	saved.PhoneNumber = "0700"
	saved.Principal = "bob"
	if err := s.SaveCallerUserProfile(as("alice"), saved); err != nil {
		t.Fatalf("SaveCallerUserProfile() error = %v", err)
	}
	if bob, _ := s.GetUserProfile(as("alice"), "bob"); bob.DisplayName != "Bob" {
		t.Error("saving alice's profile changed bob's")
	}

	byPhone, err := s.SearchUsersByPhoneNumber(as("alice"), "072")
	if err != nil || len(byPhone) != 1 || byPhone[0].Principal != "bob" {
		t.Errorf("SearchUsersByPhoneNumber() = %+v, %v", byPhone, err)
	}
	byName, err := s.SearchUsersByDisplayName(as("bob"), "alice")
	if err != nil || len(byName) != 1 || byName[0].Principal != "alice" {
		t.Errorf("SearchUsersByDisplayName() = %+v, %v", byName, err)
	}
}

func TestAssignRole(t *testing.T) {
	s := testService(t)
	register(t, s, "alice", "0711", "Alice")
	register(t, s, "bob", "0722", "Bob")

	if err := s.AssignCallerUserRole(as("bob"), "alice", backend.RoleGuest); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("non-admin assign error = %v, want ErrPermissionDenied", err)
	}
	if err := s.AssignCallerUserRole(as("alice"), "bob", backend.RoleAdmin); err != nil {
		t.Fatalf("AssignCallerUserRole() error = %v", err)
	}
	if ok, _ := s.IsCallerAdmin(as("bob")); !ok {
		t.Error("bob should be admin")
	}
	if err := s.AssignCallerUserRole(as("alice"), "ghost", backend.RoleUser); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("assign to unknown user error = %v, want ErrNotFound", err)
	}
}

func TestConversationMembership(t *testing.T) {
	s := testService(t)
	register(t, s, "alice", "0711", "Alice")
	register(t, s, "bob", "0722", "Bob")
	register(t, s, "carol", "0733", "Carol")

	if _, err := s.CreateConversation(as("alice"), "", "", false, []backend.Principal{"bob", "carol"}); !errors.Is(err, backend.ErrInvalidArgument) {
		t.Errorf("direct chat with two others error = %v, want ErrInvalidArgument", err)
	}
	if _, err := s.CreateConversation(as("alice"), "x", "", true, []backend.Principal{"ghost"}); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("unknown member error = %v, want ErrNotFound", err)
	}

	direct, err := s.CreateConversation(as("alice"), "Bob", "", false, []backend.Principal{"bob"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetMessages(as("carol"), direct, 100, 0); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("outsider GetMessages() error = %v, want ErrPermissionDenied", err)
	}
	if _, err := s.SendMessage(as("carol"), direct, "hi", backend.MediaText, nil); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("outsider SendMessage() error = %v, want ErrPermissionDenied", err)
	}
	if err := s.AddMember(as("alice"), direct, "carol"); !errors.Is(err, backend.ErrInvalidArgument) {
		t.Errorf("AddMember() to direct chat error = %v, want ErrInvalidArgument", err)
	}

	group, err := s.CreateConversation(as("alice"), "Team", "", true, []backend.Principal{"bob"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddMember(as("bob"), group, "carol"); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	c, err := s.GetConversation(as("carol"), group)
	if err != nil || len(c.Members) != 3 {
		t.Fatalf("GetConversation() = %+v, %v, want 3 members", c, err)
	}
	if err := s.LeaveConversation(as("carol"), group); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetConversation(as("carol"), group); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("GetConversation() after leaving error = %v, want ErrPermissionDenied", err)
	}
	if _, err := s.GetConversation(as("alice"), "missing"); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("GetConversation(missing) error = %v, want ErrNotFound", err)
	}
}

func TestMessagesUnreadAndStatus(t *testing.T) {
	s := testService(t)
	register(t, s, "alice", "0711", "Alice")
	register(t, s, "bob", "0722", "Bob")
	conv, err := s.CreateConversation(as("alice"), "", "", false, []backend.Principal{"bob"})
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, text := range []string{"one", "two", "three"} {
		id, err := s.SendMessage(as("bob"), conv, text, backend.MediaText, nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if _, err := s.SendMessage(as("alice"), conv, "  ", backend.MediaText, nil); !errors.Is(err, backend.ErrInvalidArgument) {
		t.Errorf("blank text error = %v, want ErrInvalidArgument", err)
	}
	if _, err := s.SendMessage(as("alice"), conv, "x", "hologram", nil); !errors.Is(err, backend.ErrInvalidArgument) {
		t.Errorf("unknown media type error = %v, want ErrInvalidArgument", err)
	}

	msgs, err := s.GetMessages(as("alice"), conv, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Content != "two" || msgs[1].Content != "three" {
		t.Errorf("newest page = %+v, want two, three", msgs)
	}

	if n, _ := s.GetTotalUnread(as("alice")); n != 3 {
		t.Errorf("alice unread = %d, want 3", n)
	}
	if n, _ := s.GetTotalUnread(as("bob")); n != 0 {
		t.Errorf("bob unread = %d, want 0 (own messages)", n)
	}

	if err := s.DeleteMessage(as("alice"), ids[0]); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("non-sender delete error = %v, want ErrPermissionDenied", err)
	}
	if err := s.DeleteMessage(as("bob"), ids[0]); err != nil {
		t.Fatal(err)
	}
	counts, err := s.GetUnreadCounts(as("alice"))
	if err != nil || len(counts) != 1 || counts[0].Count != 2 {
		t.Errorf("GetUnreadCounts() = %+v, %v, want 2 after a delete", counts, err)
	}

	if err := s.UpdateMessageStatus(as("alice"), ids[1], backend.StatusReceived); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := s.MarkConversationAsRead(as("alice"), conv); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := s.GetTotalUnread(as("alice")); n != 0 {
		t.Errorf("alice unread after read = %d, want 0", n)
	}
	if err := s.UpdateMessageStatus(as("bob"), ids[2], backend.StatusSent); err != nil {
		t.Fatal(err)
	}

	msgs, _ = s.GetMessages(as("bob"), conv, 100, 0)
	want := []backend.MessageStatus{backend.StatusDeleted, backend.StatusRead, backend.StatusRead}
	for i, m := range msgs {
		if m.Status != want[i] {
			t.Errorf("message %d status = %s, want %s", i, m.Status, want[i])
		}
	}
	if msgs[0].Content != "" {
		t.Errorf("deleted message content = %q, want empty", msgs[0].Content)
	}
	if err := s.UpdateMessageStatus(as("bob"), ids[0], backend.StatusRead); err != nil {
		t.Fatal(err)
	}
	if m, _ := s.db.GetMessage(ids[0]); m.Status != backend.StatusDeleted {
		t.Errorf("deleted message status changed to %s", m.Status)
	}
}

func TestSendMessageResolvesBlob(t *testing.T) {
	s := testService(t)
	register(t, s, "alice", "0711", "Alice")
	register(t, s, "bob", "0722", "Bob")
	conv, _ := s.CreateConversation(as("alice"), "", "", false, []backend.Principal{"bob"})

	if err := s.db.InsertBlob(&store.Blob{ID: "b1", Owner: "alice", Data: []byte("png"), CreatedAt: s.now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendMessage(as("alice"), conv, "pic.png", backend.MediaImage, &backend.Blob{ID: "b1"}); err != nil {
		t.Fatal(err)
	}
	msgs, _ := s.GetMessages(as("bob"), conv, 10, 0)
	if got := msgs[0].Media.DirectURL(); got != "http://blobs.test/blobs/b1" {
		t.Errorf("media url = %q", got)
	}
	if _, err := s.SendMessage(as("alice"), conv, "gif", backend.MediaGIF, backend.BlobFromURL("https://media.example/x.gif")); err != nil {
		t.Errorf("URL-only media error = %v", err)
	}
}

func TestReactionsAndContacts(t *testing.T) {
	s := testService(t)
	register(t, s, "alice", "0711", "Alice")
	register(t, s, "bob", "0722", "Bob")
	conv, _ := s.CreateConversation(as("alice"), "", "", false, []backend.Principal{"bob"})
	msg, _ := s.SendMessage(as("alice"), conv, "hi", backend.MediaText, nil)

	r1, err := s.AddReaction(as("bob"), msg, "👍")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddReaction(as("bob"), msg, "👍"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveReaction(as("alice"), r1); !errors.Is(err, backend.ErrPermissionDenied) {
		t.Errorf("removing another's reaction error = %v, want ErrPermissionDenied", err)
	}
	if err := s.RemoveReaction(as("bob"), r1); err != nil {
		t.Fatal(err)
	}
	rs, err := s.GetReactions(as("alice"), msg)
	if err != nil || len(rs) != 1 {
		t.Errorf("GetReactions() = %v, %v, want 1", rs, err)
	}

	if err := s.AddContact(as("alice"), "0722", "B"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddContact(as("alice"), "0722", "Brother"); err != nil {
		t.Fatal(err)
	}
	cs, err := s.GetContacts(as("alice"))
	if err != nil || len(cs) != 1 || cs[0].ContactLabel != "Brother" || cs[0].DisplayName != "Bob" {
		t.Errorf("GetContacts() = %+v, %v", cs, err)
	}
	if err := s.RemoveContact(as("alice"), "0722"); err != nil {
		t.Fatal(err)
	}
	if cs, _ := s.GetContacts(as("alice")); len(cs) != 0 {
		t.Errorf("contacts after remove = %v", cs)
	}
}
