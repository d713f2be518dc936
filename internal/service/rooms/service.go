package rooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlazarev/chatd/internal/store"
)

// Common errors for room operations.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrInvalidRole        = errors.New("invalid role")
)

// Service provides room management business logic.
type Service struct {
	store store.Store
}

// New creates a new room service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// Create creates a room and makes the creator its first admin member, in a
// single atomic step.
func (s *Service) Create(ctx context.Context, creatorID int64, name string, imageURL *string) (*store.Room, error) {
	room, err := s.store.CreateRoom(ctx, name, imageURL, creatorID, store.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// Update applies a partial update; nil fields are left untouched.
func (s *Service) Update(ctx context.Context, roomID int64, upd store.RoomUpdate) (*store.Room, error) {
	exists, err := s.store.RoomExists(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("check room: %w", err)
	}
	if !exists {
		return nil, ErrRoomNotFound
	}

	room, err := s.store.UpdateRoom(ctx, roomID, upd)
	if err != nil {
		return nil, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

// Delete removes the room along with its memberships and room messages.
// No role check is applied: any authenticated user may delete a room.
func (s *Service) Delete(ctx context.Context, roomID int64) error {
	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// List returns every room.
func (s *Service) List(ctx context.Context) ([]*store.Room, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// Get returns a room by ID.
func (s *Service) Get(ctx context.Context, roomID int64) (*store.Room, error) {
	room, err := s.store.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// ListForMember resolves the actor's membership rows to rooms, keeping
// membership order.
func (s *Service) ListForMember(ctx context.Context, memberID int64) ([]*store.Room, error) {
	rooms, err := s.store.ListRoomsForMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member rooms: %w", err)
	}
	return rooms, nil
}

// Members resolves every membership row of the room to its user record.
func (s *Service) Members(ctx context.Context, roomID int64) ([]*store.User, error) {
	members, err := s.store.ListMembers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// AddMember adds the requested user to the room. An empty role defaults to
// member; adding an existing member is a no-op.
func (s *Service) AddMember(ctx context.Context, roomID, memberID int64, role store.Role) error {
	if role == "" {
		role = store.RoleMember
	}
	switch role {
	case store.RoleAdmin, store.RoleModerator, store.RoleMember:
	default:
		return ErrInvalidRole
	}

	exists, err := s.store.UserExists(ctx, memberID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	exists, err = s.store.RoomExists(ctx, roomID)
	if err != nil {
		return fmt.Errorf("check room: %w", err)
	}
	if !exists {
		return ErrRoomNotFound
	}

	if err := s.store.AddMember(ctx, roomID, memberID, role); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

// RemoveMember removes the (room, member) membership row.
func (s *Service) RemoveMember(ctx context.Context, roomID, memberID int64) error {
	exists, err := s.store.RoomExists(ctx, roomID)
	if err != nil {
		return fmt.Errorf("check room: %w", err)
	}
	if !exists {
		return ErrRoomNotFound
	}

	if err := s.store.RemoveMember(ctx, roomID, memberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("remove member: %w", err)
	}

	return nil
}
