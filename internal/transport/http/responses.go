package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mlazarev/chatd/internal/store"
)

// ErrorResponse represents a plain error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse carries per-field validation failures.
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// UserResponse represents a user in API responses. The password hash never
// leaves the server.
type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	ImageURL  *string `json:"image_url"`
	CreatedAt string  `json:"created_at"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"sender_id"`
	ReceiverID *int64 `json:"receiver_id"`
	RoomID     *int64 `json:"room_id"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func userToResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.Format(timeLayout),
	}
}

func roomToResponse(r *store.Room) RoomResponse {
	return RoomResponse{
		ID:        r.ID,
		Name:      r.Name,
		ImageURL:  r.ImageURL,
		CreatedAt: r.CreatedAt.Format(timeLayout),
	}
}

func messageToResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		RoomID:     m.RoomID,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.Format(timeLayout),
		UpdatedAt:  m.UpdatedAt.Format(timeLayout),
	}
}

func messagesToResponse(msgs []*store.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToResponse(m))
	}
	return out
}

func roomsToResponse(rooms []*store.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomToResponse(r))
	}
	return out
}

// abortValidation writes a 422 with per-field errors when err comes from
// binding validation, falling back to a 400 for malformed bodies.
func abortValidation(c *gin.Context, req interface{}, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	fields := make(map[string][]string)
	for _, fe := range verrs {
		name := jsonFieldName(req, fe.StructField())
		fields[name] = append(fields[name], validationMessage(name, fe))
	}

	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Message: "The given data was invalid.",
		Errors:  fields,
	})
}

// jsonFieldName resolves the json tag of a struct field so validation
// errors are keyed the way the client sent them.
func jsonFieldName(req interface{}, structField string) string {
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	field, ok := t.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return strings.ToLower(structField)
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

func validationMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "min":
		return fmt.Sprintf("The %s must be at least %s.", name, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid.", name)
	}
}
