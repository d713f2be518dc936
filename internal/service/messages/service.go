package messages

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlazarev/chatd/internal/store"
)

// Common errors for message operations.
var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotOwner         = errors.New("message was not sent by this user")
	ErrNotMember        = errors.New("not a member of the room")
)

// MaxContentLength caps message content size.
const MaxContentLength = 1000

// FanOut reports how a multi-target send went. Sent counts the messages
// actually created; Total is the number of requested targets.
type FanOut struct {
	Sent  int
	Total int
}

// String renders the counter the way the API reports it.
func (f FanOut) String() string {
	return fmt.Sprintf("%d/%d messages sent successfully", f.Sent, f.Total)
}

// Service provides messaging business logic.
type Service struct {
	store store.Store
}

// New creates a new message service.
func New(st store.Store) *Service {
	return &Service{
		store: st,
	}
}

// SendPrivate creates one private message per receiver. Every receiver must
// exist; writes are sequential and a failure partway through is reported
// via the fan-out counter rather than rolled back.
func (s *Service) SendPrivate(ctx context.Context, senderID int64, receiverIDs []int64, content string) (FanOut, error) {
	if err := s.checkReceivers(ctx, receiverIDs); err != nil {
		return FanOut{}, err
	}

	result := FanOut{Total: len(receiverIDs)}
	for _, receiverID := range receiverIDs {
		rid := receiverID
		msg := &store.Message{
			SenderID:   senderID,
			ReceiverID: &rid,
			Content:    content,
		}
		if err := s.store.CreateMessage(ctx, msg); err != nil {
			return result, fmt.Errorf("create message: %w", err)
		}
		result.Sent++
	}

	return result, nil
}

// SendRoom creates one room message per room the sender belongs to. Rooms
// the sender is not a member of are silently skipped and counted as
// not-sent. Every room must exist.
func (s *Service) SendRoom(ctx context.Context, senderID int64, roomIDs []int64, content string) (FanOut, error) {
	if err := s.checkRooms(ctx, roomIDs); err != nil {
		return FanOut{}, err
	}

	result := FanOut{Total: len(roomIDs)}
	for _, roomID := range roomIDs {
		isMember, err := s.store.IsMember(ctx, roomID, senderID)
		if err != nil {
			return result, fmt.Errorf("check membership: %w", err)
		}
		if !isMember {
			continue
		}

		rid := roomID
		msg := &store.Message{
			SenderID: senderID,
			RoomID:   &rid,
			Content:  content,
		}
		if err := s.store.CreateMessage(ctx, msg); err != nil {
			return result, fmt.Errorf("create message: %w", err)
		}
		result.Sent++
	}

	return result, nil
}

// Edit replaces the content of a message. Only the original sender may
// edit; on an ownership failure the unmodified message is returned
// alongside ErrNotOwner so callers can include it in the rejection.
func (s *Service) Edit(ctx context.Context, actorID, messageID int64, content string) (*store.Message, error) {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	if msg.SenderID != actorID {
		return msg, ErrNotOwner
	}

	updated, err := s.store.UpdateMessageContent(ctx, messageID, content)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}

	return updated, nil
}

// Delete permanently removes a message. Only the original sender may delete.
func (s *Service) Delete(ctx context.Context, actorID, messageID int64) error {
	msg, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("get message: %w", err)
	}

	if msg.SenderID != actorID {
		return ErrNotOwner
	}

	if err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	return nil
}

// ForwardPrivate copies an existing message's content to each receiver as a
// new private message sent by the forwarding user. Any authenticated user
// may forward any message; no ownership check is applied to the source.
func (s *Service) ForwardPrivate(ctx context.Context, actorID, messageID int64, receiverIDs []int64) (FanOut, error) {
	source, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return FanOut{}, ErrMessageNotFound
		}
		return FanOut{}, fmt.Errorf("get message: %w", err)
	}

	return s.SendPrivate(ctx, actorID, receiverIDs, source.Content)
}

// ForwardRoom copies an existing message's content into each room, applying
// the same membership gate as SendRoom.
func (s *Service) ForwardRoom(ctx context.Context, actorID, messageID int64, roomIDs []int64) (FanOut, error) {
	source, err := s.store.GetMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return FanOut{}, ErrMessageNotFound
		}
		return FanOut{}, fmt.Errorf("get message: %w", err)
	}

	return s.SendRoom(ctx, actorID, roomIDs, source.Content)
}

// GetAll returns every stored message.
func (s *Service) GetAll(ctx context.Context) ([]*store.Message, error) {
	msgs, err := s.store.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// GetByID returns a single message.
func (s *Service) GetByID(ctx context.Context, id int64) (*store.Message, error) {
	msg, err := s.store.GetMessageByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return msg, nil
}

// GetPrivateChat returns the private messages exchanged between the actor
// and the other user, in either direction.
func (s *Service) GetPrivateChat(ctx context.Context, actorID, otherID int64) ([]*store.Message, error) {
	msgs, err := s.store.ListPrivateChat(ctx, actorID, otherID)
	if err != nil {
		return nil, fmt.Errorf("list private chat: %w", err)
	}
	return msgs, nil
}

// GetRoomChat returns the messages of a room. The actor must be a member;
// the message store is never queried otherwise.
func (s *Service) GetRoomChat(ctx context.Context, actorID, roomID int64) ([]*store.Message, error) {
	isMember, err := s.store.IsMember(ctx, roomID, actorID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotMember
	}

	msgs, err := s.store.ListRoomMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room messages: %w", err)
	}
	return msgs, nil
}

func (s *Service) checkReceivers(ctx context.Context, receiverIDs []int64) error {
	for _, id := range receiverIDs {
		exists, err := s.store.UserExists(ctx, id)
		if err != nil {
			return fmt.Errorf("check receiver: %w", err)
		}
		if !exists {
			return fmt.Errorf("receiver %d: %w", id, ErrReceiverNotFound)
		}
	}
	return nil
}

func (s *Service) checkRooms(ctx context.Context, roomIDs []int64) error {
	for _, id := range roomIDs {
		exists, err := s.store.RoomExists(ctx, id)
		if err != nil {
			return fmt.Errorf("check room: %w", err)
		}
		if !exists {
			return fmt.Errorf("room %d: %w", id, ErrRoomNotFound)
		}
	}
	return nil
}
