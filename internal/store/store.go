package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Room represents a chat room.
type Room struct {
	ID        int64
	Name      string
	ImageURL  *string
	CreatedAt time.Time
}

// Role defines what a member may do inside a room.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// RoomMember binds a user to a room with a role.
// At most one row exists per (room, member) pair.
type RoomMember struct {
	RoomID   int64
	MemberID int64
	Role     Role
	JoinedAt time.Time
}

// Message is a persisted chat message. Exactly one of ReceiverID and
// RoomID is set: private messages carry a receiver, room messages a room.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID *int64
	RoomID     *int64
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RoomUpdate carries a partial room update; nil fields are left untouched.
type RoomUpdate struct {
	Name     *string
	ImageURL *string
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// UserExists reports whether a user with the given ID exists.
	UserExists(ctx context.Context, id int64) (bool, error)
}

// RoomStore handles room and membership persistence.
type RoomStore interface {
	// CreateRoom creates a room and the creator's membership in a single
	// transaction so a membership failure never leaves an orphaned room.
	CreateRoom(ctx context.Context, name string, imageURL *string, creatorID int64, creatorRole Role) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// UpdateRoom applies the non-nil fields of upd to the room.
	UpdateRoom(ctx context.Context, id int64, upd RoomUpdate) (*Room, error)

	// DeleteRoom removes the room together with its memberships and room
	// messages in a single transaction.
	DeleteRoom(ctx context.Context, id int64) error

	// ListRooms lists every room.
	ListRooms(ctx context.Context) ([]*Room, error)

	// ListRoomsForMember lists the rooms a user belongs to, in membership order.
	ListRoomsForMember(ctx context.Context, memberID int64) ([]*Room, error)

	// RoomExists reports whether a room with the given ID exists.
	RoomExists(ctx context.Context, id int64) (bool, error)

	// AddMember adds a user to a room with the given role. Adding an
	// existing member is a no-op.
	AddMember(ctx context.Context, roomID, memberID int64, role Role) error

	// RemoveMember removes a user from a room. Returns ErrNotFound when
	// no such membership exists.
	RemoveMember(ctx context.Context, roomID, memberID int64) error

	// IsMember checks whether the user has a membership row for the room.
	IsMember(ctx context.Context, roomID, memberID int64) (bool, error)

	// ListMembers resolves every membership row of a room to its user.
	ListMembers(ctx context.Context, roomID int64) ([]*User, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and fills in its ID and timestamps.
	CreateMessage(ctx context.Context, msg *Message) error

	// GetMessageByID retrieves a message by ID.
	GetMessageByID(ctx context.Context, id int64) (*Message, error)

	// UpdateMessageContent replaces the content of a message.
	UpdateMessageContent(ctx context.Context, id int64, content string) (*Message, error)

	// DeleteMessage removes a message permanently.
	DeleteMessage(ctx context.Context, id int64) error

	// ListMessages lists every message.
	ListMessages(ctx context.Context) ([]*Message, error)

	// ListPrivateChat lists the private messages exchanged between two
	// users, in either direction, oldest first.
	ListPrivateChat(ctx context.Context, userID, otherID int64) ([]*Message, error)

	// ListRoomMessages lists the messages addressed to a room, oldest first.
	ListRoomMessages(ctx context.Context, roomID int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
