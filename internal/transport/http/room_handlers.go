package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mlazarev/chatd/internal/service/rooms"
	"github.com/mlazarev/chatd/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	service *rooms.Service
	log     *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(svc *rooms.Service, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		service: svc,
		log:     logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	ImageURL *string `json:"image_url"`
}

// UpdateRoomRequest represents the partial update request body. Absent
// fields leave the stored value untouched.
type UpdateRoomRequest struct {
	RoomID   int64   `json:"room_id" binding:"required"`
	Name     *string `json:"name" binding:"omitempty,max=255"`
	ImageURL *string `json:"image_url"`
}

// DeleteRoomRequest represents the delete request body.
type DeleteRoomRequest struct {
	RoomID int64 `json:"room_id" binding:"required"`
}

// RoomMemberRequest represents the add/remove member request body.
type RoomMemberRequest struct {
	MemberID int64  `json:"member_id" binding:"required"`
	RoomID   int64  `json:"room_id" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=admin moderator member"`
}

// Create handles room creation. The creator becomes the room's first
// admin member.
// POST /rooms/create
func (h *RoomHandlers) Create(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	room, err := h.service.Create(c.Request.Context(), uid, req.Name, req.ImageURL)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("creator_id", uid).Msg("room created")
	c.JSON(http.StatusCreated, gin.H{"room": roomToResponse(room)})
}

// Update handles partial room updates.
// PUT /rooms/update
func (h *RoomHandlers) Update(c *gin.Context) {
	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	room, err := h.service.Update(c.Request.Context(), req.RoomID, store.RoomUpdate{
		Name:     req.Name,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", req.RoomID).Msg("failed to update room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Room updated successfully",
		"room":    roomToResponse(room),
	})
}

// Delete removes a room with its memberships and messages. No role check
// is applied at this layer.
// DELETE /rooms/delete
func (h *RoomHandlers) Delete(c *gin.Context) {
	var req DeleteRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.RoomID); err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", req.RoomID).Msg("failed to delete room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room deleted successfully"})
}

// List returns every room.
// GET /rooms
func (h *RoomHandlers) List(c *gin.Context) {
	all, err := h.service.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if len(all) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No rooms found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": roomsToResponse(all)})
}

// MyRooms lists the rooms the actor belongs to.
// GET /rooms/my-rooms
func (h *RoomHandlers) MyRooms(c *gin.Context) {
	uid, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	mine, err := h.service.ListForMember(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list member rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": roomsToResponse(mine)})
}

// Get returns a room by id.
// GET /rooms/:room_id
func (h *RoomHandlers) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	room, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, rooms.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", id).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": roomToResponse(room)})
}

// Members resolves the room's membership rows to user records.
// GET /rooms/:room_id/members
func (h *RoomHandlers) Members(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	members, err := h.service.Members(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", id).Msg("failed to list members")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if len(members) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No members found in this room"})
		return
	}

	out := make([]UserResponse, 0, len(members))
	for _, m := range members {
		out = append(out, userToResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

// AddMember adds the requested user to a room. The role defaults to
// member when omitted.
// POST /rooms/add-member
func (h *RoomHandlers) AddMember(c *gin.Context) {
	var req RoomMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	err := h.service.AddMember(c.Request.Context(), req.RoomID, req.MemberID, store.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrUserNotFound):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"member_id": {"The selected member id is invalid."}},
			})
		case errors.Is(err, rooms.ErrRoomNotFound):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"room_id": {"The selected room id is invalid."}},
			})
		default:
			h.log.Error().Err(err).Int64("room_id", req.RoomID).Int64("member_id", req.MemberID).Msg("failed to add member")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("room_id", req.RoomID).Int64("member_id", req.MemberID).Msg("room member added")
	c.JSON(http.StatusCreated, gin.H{"message": "Room member added successfully"})
}

// RemoveMember deletes the (room, member) membership row.
// POST /rooms/remove-member
func (h *RoomHandlers) RemoveMember(c *gin.Context) {
	var req RoomMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortValidation(c, req, err)
		return
	}

	err := h.service.RemoveMember(c.Request.Context(), req.RoomID, req.MemberID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrRoomNotFound):
			c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
				Message: "The given data was invalid.",
				Errors:  map[string][]string{"room_id": {"The selected room id is invalid."}},
			})
		case errors.Is(err, rooms.ErrMembershipNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Membership not found"})
		default:
			h.log.Error().Err(err).Int64("room_id", req.RoomID).Int64("member_id", req.MemberID).Msg("failed to remove member")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room member removed successfully"})
}
