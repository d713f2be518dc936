package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mlazarev/chatd/internal/service/messages"
)

// MessageHandlers provides HTTP handlers for messaging endpoints.
type MessageHandlers struct {
	service *messages.Service
	log     *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(svc *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		service: svc,
		log:     logger,
	}
}

// SendPrivateRequest represents the send-private request body.
type SendPrivateRequest struct {
	Receivers []int64 `json:"receivers" binding:"required,min=1"`
	Content   string  `json:"content" binding:"required,max=1000"`
}

// SendRoomRequest represents the send-room request body.
type SendRoomRequest struct {
	RoomIDs []int64 `json:"room_ids" binding:"required,min=1"`
	Content string  `json:"content" binding:"required,max=1000"`
}

// EditMessageRequest represents the edit request body.
type EditMessageRequest struct {
	MessageID int64  `json:"message_id" binding:"required"`
	Content   string `json:"content" binding:"required,max=1000"`
}

// DeleteMessageRequest represents the delete request body.
type DeleteMessageRequest struct {
	MessageID int64 `json:"message_id" binding:"required"`
}

// ForwardPrivateRequest represents the forward-private request body.
type ForwardPrivateRequest struct {
	MessageID int64   `json:"message_id" binding:"required"`
	Receivers []int64 `json:"receivers" binding:"required,min=1"`
}

// ForwardRoomRequest represents the forward-room request body.
type ForwardRoomRequest struct {
	MessageID int64   `json:"message_id" binding:"required"`
	RoomIDs   []int64 `json:"room_ids" binding:"required,min=1"`
}

// fanOutResponse writes the k/n counter. The status is 201 regardless of
// how many targets were skipped.
func fanOutResponse(c *gin.Context, result messages.FanOut) {
	c.JSON(http.StatusCreated, gin.H{"message": result.String()})
}

// respondFanOutError maps target-validation failures to 422 and everything
// else to 500.
func (h *MessageHandlers) respondFanOutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, messages.ErrReceiverNotFound):
		c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
			Message: "The given data was invalid.",
			Errors:  map[string][]string{"receivers": {"The selected receivers are invalid."}},
		})
	case errors.Is(err, messages.ErrRoomNotFound):
		c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
			Message: "The given data was invalid.",
			Errors:  map[string][]string{"room_ids": {"The selected room ids are invalid."}},
		})
	case errors.Is(err, messages.ErrMessageNotFound):
		c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
			Message: "The given data was invalid.",
			Errors:  map[string][]string{"message_id": {"The selected message id is invalid."}},
		})
	default:
		h.log.Error().Err(err).Msg("fan-out failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// SendPrivate handles private message fan-out.
// POST /messages/send-private
func (h *MessageHandlers) SendPrivate(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendPrivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	result, err := h.service.SendPrivate(c.Request.Context(), uid, req.Receivers, req.Content)
	if err != nil {
		h.respondFanOutError(c, err)
		return
	}

	h.log.Info().Int64("sender_id", uid).Int("sent", result.Sent).Int("total", result.Total).Msg("private messages sent")
	fanOutResponse(c, result)
}

// SendRoom handles room message fan-out with the membership gate.
// POST /messages/send-room
func (h *MessageHandlers) SendRoom(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SendRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	result, err := h.service.SendRoom(c.Request.Context(), uid, req.RoomIDs, req.Content)
	if err != nil {
		h.respondFanOutError(c, err)
		return
	}

	h.log.Info().Int64("sender_id", uid).Int("sent", result.Sent).Int("total", result.Total).Msg("room messages sent")
	fanOutResponse(c, result)
}

// Edit handles owner-only content updates.
// PUT /messages/edit
func (h *MessageHandlers) Edit(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	msg, err := h.service.Edit(c.Request.Context(), uid, req.MessageID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		case errors.Is(err, messages.ErrNotOwner):
			// The rejection carries the unmodified message.
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Message was not sent by this user",
				"data":    messageToResponse(msg),
			})
		default:
			h.log.Error().Err(err).Int64("message_id", req.MessageID).Msg("failed to edit message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message updated successfully",
		"data":    messageToResponse(msg),
	})
}

// Delete handles owner-only permanent removal.
// DELETE /messages/delete
func (h *MessageHandlers) Delete(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req DeleteMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uid, req.MessageID); err != nil {
		switch {
		case errors.Is(err, messages.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
		case errors.Is(err, messages.ErrNotOwner):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Message was not sent by this user"})
		default:
			h.log.Error().Err(err).Int64("message_id", req.MessageID).Msg("failed to delete message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message successfully deleted"})
}

// ForwardPrivate copies an existing message to users.
// POST /messages/forward-private
func (h *MessageHandlers) ForwardPrivate(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ForwardPrivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	result, err := h.service.ForwardPrivate(c.Request.Context(), uid, req.MessageID, req.Receivers)
	if err != nil {
		h.respondFanOutError(c, err)
		return
	}

	fanOutResponse(c, result)
}

// ForwardRoom copies an existing message to rooms, membership-gated.
// POST /messages/forward-room
func (h *MessageHandlers) ForwardRoom(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ForwardRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	result, err := h.service.ForwardRoom(c.Request.Context(), uid, req.MessageID, req.RoomIDs)
	if err != nil {
		h.respondFanOutError(c, err)
		return
	}

	fanOutResponse(c, result)
}

// GetAll lists every message.
// GET /messages
func (h *MessageHandlers) GetAll(c *gin.Context) {
	msgs, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if len(msgs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No messages found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messagesToResponse(msgs)})
}

// GetByID returns a single message.
// GET /messages/:message_id
func (h *MessageHandlers) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
		return
	}

	msg, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, messages.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Message not found"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", id).Msg("failed to get message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messageToResponse(msg)})
}

// GetPrivateChat lists the conversation between the actor and another user.
// GET /messages/private/:receiver_id
func (h *MessageHandlers) GetPrivateChat(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	otherID, err := strconv.ParseInt(c.Param("receiver_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid receiver id"})
		return
	}

	msgs, err := h.service.GetPrivateChat(c.Request.Context(), uid, otherID)
	if err != nil {
		h.log.Error().Err(err).Int64("receiver_id", otherID).Msg("failed to list private chat")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if len(msgs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Chat found",
		"data":    messagesToResponse(msgs),
	})
}

// GetRoomChat lists a room's messages, membership-gated.
// GET /messages/room/:room_id
func (h *MessageHandlers) GetRoomChat(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	msgs, err := h.service.GetRoomChat(c.Request.Context(), uid, roomID)
	if err != nil {
		if errors.Is(err, messages.ErrNotMember) {
			c.JSON(http.StatusForbidden, gin.H{
				"message": "You are not the member of the room",
				"data":    nil,
			})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to list room chat")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if len(msgs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Chat not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Chat found",
		"data":    messagesToResponse(msgs),
	})
}
