package dto

// ── 场地模块 DTO ──

// CreateRoomRequest 创建场地请求
type CreateRoomRequest struct {
	Code          string `json:"code"           binding:"required,max=32"`
	Name          string `json:"name"           binding:"required,max=100"`
	Capacity      int    `json:"capacity"       binding:"required,min=1"`
	Description   string `json:"description"`
	UsualActivity string `json:"usual_activity"`
}

// RoomResponse 场地信息响应
type RoomResponse struct {
	ID            uint   `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Capacity      int    `json:"capacity"`
	Description   string `json:"description,omitempty"`
	UsualActivity string `json:"usual_activity,omitempty"`
}
