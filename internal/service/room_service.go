package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-venue/internal/dto"
	"campus-venue/internal/model"
	"campus-venue/internal/repository"
	pkgerrors "campus-venue/pkg/errors"
)

var (
	ErrRoomNotFound    = pkgerrors.New(pkgerrors.ErrNotFound, "场地不存在")
	ErrRoomCodeExists  = pkgerrors.New(pkgerrors.ErrValidation, "场地编码已存在")
	ErrInvalidCapacity = pkgerrors.New(pkgerrors.ErrValidation, "场地容量必须大于 0")
)

// RoomService 场地目录业务接口
type RoomService interface {
	List(ctx context.Context) ([]dto.RoomResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.RoomResponse, error)
	Create(ctx context.Context, principal model.Principal, req *dto.CreateRoomRequest) (*dto.RoomResponse, error)
}

type roomService struct {
	repo      *repository.Repository
	snapshots *contextSnapshots
	logger    *zap.Logger
}

// NewRoomService 创建 RoomService 实例
// 场地目录是 AI 上下文快照的一部分，新增场地后快照失效
func NewRoomService(repo *repository.Repository, cache SnapshotCache, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, snapshots: newContextSnapshots(cache, 0, logger), logger: logger}
}

func (s *roomService) List(ctx context.Context) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("查询场地列表失败", zap.Error(err))
		return nil, err
	}
	return toRoomResponses(rooms), nil
}

func (s *roomService) GetByID(ctx context.Context, id uint) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询场地失败", zap.Uint("room_id", id), zap.Error(err))
		return nil, err
	}
	resp := toRoomResponse(room)
	return &resp, nil
}

func (s *roomService) Create(ctx context.Context, principal model.Principal, req *dto.CreateRoomRequest) (*dto.RoomResponse, error) {
	if !principal.IsAdmin() {
		return nil, ErrAdminOnly
	}
	if req.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if _, err := s.repo.Room.GetByCode(ctx, code); err == nil {
		return nil, ErrRoomCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("检查场地编码失败", zap.Error(err))
		return nil, err
	}

	room := &model.Room{
		Code:          code,
		Name:          strings.TrimSpace(req.Name),
		Capacity:      req.Capacity,
		Description:   req.Description,
		UsualActivity: req.UsualActivity,
	}
	if err := s.repo.Room.Create(ctx, room); err != nil {
		s.logger.Error("创建场地失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("场地已创建", zap.Uint("room_id", room.ID), zap.String("code", room.Code))
	s.snapshots.invalidate(ctx)

	resp := toRoomResponse(room)
	return &resp, nil
}

func toRoomResponse(r *model.Room) dto.RoomResponse {
	return dto.RoomResponse{
		ID:            r.ID,
		Code:          r.Code,
		Name:          r.Name,
		Capacity:      r.Capacity,
		Description:   r.Description,
		UsualActivity: r.UsualActivity,
	}
}

func toRoomResponses(rooms []model.Room) []dto.RoomResponse {
	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, toRoomResponse(&rooms[i]))
	}
	return result
}
