package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/babelchat/internal/core"
	"github.com/vovakirdan/babelchat/internal/translate"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *core.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: registry,
		log:      logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"max=64"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateRoom creates a room under a server-generated id.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.registry.CreateRoom(uuid.NewString(), req.Name)
	if err != nil {
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room", room.ID).Str("room_name", room.Name).Msg("room created")
	c.JSON(http.StatusCreated, roomToProto(room))
}

// GetRoom returns the current snapshot of a room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room, ok := h.registry.GetRoom(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: core.ErrRoomNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, roomToProto(room))
}

// ListLanguages returns the supported display languages.
// GET /api/languages
func (h *RoomHandlers) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, translate.Languages())
}
