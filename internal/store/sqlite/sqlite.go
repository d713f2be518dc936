package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mlazarev/chatd/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// UserExists reports whether a user with the given ID exists.
func (s *SQLiteStore) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query user: %w", err)
	}
	return true, nil
}

// ==== RoomStore implementation ====

// CreateRoom creates a room and the creator's membership in a single
// transaction.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string, imageURL *string, creatorID int64, creatorRole store.Role) (*store.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (name, image_url)
		VALUES (?, ?)
	`, name, imageURL)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	roomID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO room_members (room_id, member_id, role)
		VALUES (?, ?, ?)
	`, roomID, creatorID, string(creatorRole)); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `
		SELECT id, name, image_url, created_at
		FROM rooms
		WHERE id = ?
	`
	var room store.Room
	var imageURL sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&imageURL,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	if imageURL.Valid {
		room.ImageURL = &imageURL.String
	}

	return &room, nil
}

// UpdateRoom applies the non-nil fields of upd to the room.
func (s *SQLiteStore) UpdateRoom(ctx context.Context, id int64, upd store.RoomUpdate) (*store.Room, error) {
	if upd.Name != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE rooms SET name = ? WHERE id = ?`, *upd.Name, id); err != nil {
			return nil, fmt.Errorf("update room name: %w", err)
		}
	}
	if upd.ImageURL != nil {
		if _, err := s.db.ExecContext(ctx, `UPDATE rooms SET image_url = ? WHERE id = ?`, *upd.ImageURL, id); err != nil {
			return nil, fmt.Errorf("update room image: %w", err)
		}
	}

	return s.GetRoomByID(ctx, id)
}

// DeleteRoom removes the room together with its memberships and room
// messages in a single transaction.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("delete room messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM room_members WHERE room_id = ?`, id); err != nil {
		return fmt.Errorf("delete room members: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("room: %w", store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListRooms lists every room.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, name, image_url, created_at
		FROM rooms
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

// ListRoomsForMember lists the rooms a user belongs to, in membership order.
func (s *SQLiteStore) ListRoomsForMember(ctx context.Context, memberID int64) ([]*store.Room, error) {
	query := `
		SELECT r.id, r.name, r.image_url, r.created_at
		FROM room_members rm
		JOIN rooms r ON r.id = rm.room_id
		WHERE rm.member_id = ?
		ORDER BY rm.joined_at ASC, r.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("query member rooms: %w", err)
	}
	defer rows.Close()

	return scanRooms(rows)
}

func scanRooms(rows *sql.Rows) ([]*store.Room, error) {
	var rooms []*store.Room
	for rows.Next() {
		var room store.Room
		var imageURL sql.NullString
		if err := rows.Scan(&room.ID, &room.Name, &imageURL, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		if imageURL.Valid {
			room.ImageURL = &imageURL.String
		}
		rooms = append(rooms, &room)
	}

	return rooms, rows.Err()
}

// RoomExists reports whether a room with the given ID exists.
func (s *SQLiteStore) RoomExists(ctx context.Context, id int64) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query room: %w", err)
	}
	return true, nil
}

// AddMember adds a user to a room with the given role.
func (s *SQLiteStore) AddMember(ctx context.Context, roomID, memberID int64, role store.Role) error {
	query := `
		INSERT OR IGNORE INTO room_members (room_id, member_id, role)
		VALUES (?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, roomID, memberID, string(role))
	if err != nil {
		return fmt.Errorf("insert room member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a room.
func (s *SQLiteStore) RemoveMember(ctx context.Context, roomID, memberID int64) error {
	query := `
		DELETE FROM room_members
		WHERE room_id = ? AND member_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, roomID, memberID)
	if err != nil {
		return fmt.Errorf("delete room member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("membership: %w", store.ErrNotFound)
	}

	return nil
}

// IsMember checks whether the user has a membership row for the room.
func (s *SQLiteStore) IsMember(ctx context.Context, roomID, memberID int64) (bool, error) {
	query := `
		SELECT 1 FROM room_members
		WHERE room_id = ? AND member_id = ?
	`
	var exists int
	err := s.db.QueryRowContext(ctx, query, roomID, memberID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query membership: %w", err)
	}

	return true, nil
}

// ListMembers resolves every membership row of a room to its user.
func (s *SQLiteStore) ListMembers(ctx context.Context, roomID int64) ([]*store.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at
		FROM room_members rm
		JOIN users u ON u.id = rm.member_id
		WHERE rm.room_id = ?
		ORDER BY rm.joined_at ASC, u.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []*store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, &user)
	}

	return members, rows.Err()
}

// ==== MessageStore implementation ====

// CreateMessage persists a message and fills in its ID and timestamps.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (sender_id, receiver_id, room_id, content)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.SenderID, msg.ReceiverID, msg.RoomID, msg.Content)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	saved, err := s.GetMessageByID(ctx, id)
	if err != nil {
		return err
	}
	*msg = *saved
	return nil
}

// GetMessageByID retrieves a message by ID.
func (s *SQLiteStore) GetMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, room_id, content, created_at, updated_at
		FROM messages
		WHERE id = ?
	`
	var msg store.Message
	var receiverID, roomID sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.SenderID,
		&receiverID,
		&roomID,
		&msg.Content,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	if receiverID.Valid {
		msg.ReceiverID = &receiverID.Int64
	}
	if roomID.Valid {
		msg.RoomID = &roomID.Int64
	}

	return &msg, nil
}

// UpdateMessageContent replaces the content of a message.
func (s *SQLiteStore) UpdateMessageContent(ctx context.Context, id int64, content string) (*store.Message, error) {
	query := `
		UPDATE messages
		SET content = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, content, id)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("message: %w", store.ErrNotFound)
	}

	return s.GetMessageByID(ctx, id)
}

// DeleteMessage removes a message permanently.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("message: %w", store.ErrNotFound)
	}

	return nil
}

// ListMessages lists every message.
func (s *SQLiteStore) ListMessages(ctx context.Context) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, room_id, content, created_at, updated_at
		FROM messages
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListPrivateChat lists the private messages exchanged between two users,
// in either direction, oldest first.
func (s *SQLiteStore) ListPrivateChat(ctx context.Context, userID, otherID int64) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, room_id, content, created_at, updated_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, otherID, otherID, userID)
	if err != nil {
		return nil, fmt.Errorf("query private chat: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListRoomMessages lists the messages addressed to a room, oldest first.
func (s *SQLiteStore) ListRoomMessages(ctx context.Context, roomID int64) ([]*store.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, room_id, content, created_at, updated_at
		FROM messages
		WHERE room_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query room messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*store.Message, error) {
	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		var receiverID, roomID sql.NullInt64
		if err := rows.Scan(&msg.ID, &msg.SenderID, &receiverID, &roomID, &msg.Content, &msg.CreatedAt, &msg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if receiverID.Valid {
			msg.ReceiverID = &receiverID.Int64
		}
		if roomID.Valid {
			msg.RoomID = &roomID.Int64
		}
		messages = append(messages, &msg)
	}

	return messages, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
