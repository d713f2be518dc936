package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/mlazarev/chatd/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func seedUser(t *testing.T, s *SQLiteStore, name, email string) *store.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), name, email, "hash")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func TestCreateRoom_CreatesCreatorMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "Alice", "alice@example.com")

	room, err := s.CreateRoom(ctx, "general", nil, alice.ID, store.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.Name != "general" {
		t.Errorf("expected room name 'general', got %q", room.Name)
	}

	isMember, err := s.IsMember(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("IsMember failed: %v", err)
	}
	if !isMember {
		t.Error("expected creator to be a member of the new room")
	}

	members, err := s.ListMembers(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 1 || members[0].ID != alice.ID {
		t.Errorf("expected members [alice], got %v", members)
	}
}

func TestUpdateRoom_PartialUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "Alice", "alice@example.com")
	img := "https://example.com/a.png"
	room, err := s.CreateRoom(ctx, "general", &img, alice.ID, store.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	// Update only the name; image must survive.
	newName := "random"
	updated, err := s.UpdateRoom(ctx, room.ID, store.RoomUpdate{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	if updated.Name != "random" {
		t.Errorf("expected name 'random', got %q", updated.Name)
	}
	if updated.ImageURL == nil || *updated.ImageURL != img {
		t.Errorf("expected image url to be untouched, got %v", updated.ImageURL)
	}

	// Update only the image; name must survive.
	newImg := "https://example.com/b.png"
	updated, err = s.UpdateRoom(ctx, room.ID, store.RoomUpdate{ImageURL: &newImg})
	if err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	if updated.Name != "random" {
		t.Errorf("expected name 'random' after image update, got %q", updated.Name)
	}
	if updated.ImageURL == nil || *updated.ImageURL != newImg {
		t.Errorf("expected image url %q, got %v", newImg, updated.ImageURL)
	}
}

func TestDeleteRoom_CascadesMembershipsAndMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "Alice", "alice@example.com")
	room, err := s.CreateRoom(ctx, "general", nil, alice.ID, store.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	msg := &store.Message{SenderID: alice.ID, RoomID: &room.ID, Content: "hi"}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	if err := s.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}

	if _, err := s.GetRoomByID(ctx, room.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for deleted room, got %v", err)
	}
	isMember, err := s.IsMember(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("IsMember failed: %v", err)
	}
	if isMember {
		t.Error("expected membership to be removed with the room")
	}
	msgs, err := s.ListRoomMessages(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListRoomMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected room messages to be removed, got %d", len(msgs))
	}
}

func TestAddMember_DuplicateIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "Alice", "alice@example.com")
	bob := seedUser(t, s, "Bob", "bob@example.com")
	room, err := s.CreateRoom(ctx, "general", nil, alice.ID, store.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	if err := s.AddMember(ctx, room.ID, bob.ID, store.RoleMember); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := s.AddMember(ctx, room.ID, bob.ID, store.RoleModerator); err != nil {
		t.Fatalf("second AddMember failed: %v", err)
	}

	members, err := s.ListMembers(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members, got %d", len(members))
	}
}

func TestRemoveMember_MissingMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "Alice", "alice@example.com")
	bob := seedUser(t, s, "Bob", "bob@example.com")
	room, err := s.CreateRoom(ctx, "general", nil, alice.ID, store.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	if err := s.RemoveMember(ctx, room.ID, bob.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPrivateChat_BothDirections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "Alice", "alice@example.com")
	bob := seedUser(t, s, "Bob", "bob@example.com")
	carol := seedUser(t, s, "Carol", "carol@example.com")

	send := func(from, to int64, content string) {
		t.Helper()
		msg := &store.Message{SenderID: from, ReceiverID: &to, Content: content}
		if err := s.CreateMessage(ctx, msg); err != nil {
			t.Fatalf("CreateMessage failed: %v", err)
		}
	}

	send(alice.ID, bob.ID, "hi bob")
	send(bob.ID, alice.ID, "hi alice")
	send(alice.ID, carol.ID, "hi carol")

	msgs, err := s.ListPrivateChat(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("ListPrivateChat failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages in chat, got %d", len(msgs))
	}
	if msgs[0].Content != "hi bob" || msgs[1].Content != "hi alice" {
		t.Errorf("unexpected chat order: %q, %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestUpdateMessageContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "Alice", "alice@example.com")
	bob := seedUser(t, s, "Bob", "bob@example.com")

	msg := &store.Message{SenderID: alice.ID, ReceiverID: &bob.ID, Content: "draft"}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}

	updated, err := s.UpdateMessageContent(ctx, msg.ID, "final")
	if err != nil {
		t.Fatalf("UpdateMessageContent failed: %v", err)
	}
	if updated.Content != "final" {
		t.Errorf("expected content 'final', got %q", updated.Content)
	}

	if _, err := s.UpdateMessageContent(ctx, 9999, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing message, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "Alice", "alice@example.com")

	user, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if user.Name != "Alice" {
		t.Errorf("expected name 'Alice', got %q", user.Name)
	}

	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
