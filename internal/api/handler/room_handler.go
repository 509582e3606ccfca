package handler

import (
	"github.com/gin-gonic/gin"

	"campus-venue/internal/dto"
	"campus-venue/internal/service"
	"campus-venue/pkg/response"
)

// RoomHandler 场地模块 HTTP 处理器
type RoomHandler struct {
	roomSvc service.RoomService
}

// NewRoomHandler 创建 RoomHandler
func NewRoomHandler(roomSvc service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

// ListRooms 获取场地列表
// GET /api/v1/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": rooms})
}

// GetRoom 获取场地详情
// GET /api/v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	room, err := h.roomSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, room)
}

// CreateRoom 创建场地
// POST /api/v1/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	principal, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Create(c.Request.Context(), principal, &req)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, room)
}
