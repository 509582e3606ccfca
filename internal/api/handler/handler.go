package handler

import "campus-venue/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Room        *RoomHandler
	Reservation *ReservationHandler
	Assistant   *AssistantHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Room:        NewRoomHandler(svc.Room),
		Reservation: NewReservationHandler(svc.Reservation),
		Assistant:   NewAssistantHandler(svc.Assistant),
		Export:      NewExportHandler(svc.Export),
	}
}
