package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-venue/internal/dto"
	"campus-venue/internal/model"
	"campus-venue/internal/repository"
	pkgerrors "campus-venue/pkg/errors"
)

var (
	ErrQuestionRequired     = pkgerrors.New(pkgerrors.ErrValidation, "问题不能为空")
	ErrAssistantUnavailable = errors.New("AI 助手暂不可用，请稍后重试")
)

// systemInstruction 限定 AI 只依据快照作答
const systemInstruction = `You are the campus facility reservation assistant.
Answer only from the DATA section: "facilities" lists every venue with its capacity and usual activity,
"approved_schedule" lists the approved bookings (date, start_time, end_time are local time).
A venue is unavailable at a given time if any approved booking for its room_id overlaps that time.
If the answer cannot be derived from DATA, say so. Keep answers short.`

// AssistantService AI 助手业务接口
type AssistantService interface {
	// BuildContext 构建场地与已批准日程的只读快照
	BuildContext(ctx context.Context, now time.Time) (*dto.AssistantContext, error)
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
}

type assistantService struct {
	repo      *repository.Repository
	ai        AssistantClient
	snapshots *contextSnapshots
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssistantService 创建 AssistantService 实例
func NewAssistantService(
	repo *repository.Repository,
	ai AssistantClient,
	cache SnapshotCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) AssistantService {
	return &assistantService{
		repo:      repo,
		ai:        ai,
		snapshots: newContextSnapshots(cache, cacheTTL, logger),
		logger:    logger,
		now:       time.Now,
	}
}

func (s *assistantService) BuildContext(ctx context.Context, now time.Time) (*dto.AssistantContext, error) {
	rooms, err := s.repo.Room.List(ctx)
	if err != nil {
		s.logger.Error("构建上下文: 查询场地失败", zap.Error(err))
		return nil, err
	}

	// 已归档但已批准的预约同样占用场地，不做过滤
	approved, err := s.repo.Reservation.ListByStatus(ctx, model.StatusApproved)
	if err != nil {
		s.logger.Error("构建上下文: 查询已批准预约失败", zap.Error(err))
		return nil, err
	}

	schedule := make([]dto.ScheduleEntry, 0, len(approved))
	for _, r := range approved {
		schedule = append(schedule, dto.ScheduleEntry{
			RoomID:    r.RoomID,
			Activity:  r.ActivityPurpose,
			Date:      r.StartTime.Format("2006-01-02"),
			StartTime: r.StartTime.Format("15:04"),
			EndTime:   r.EndTime.Format("15:04"),
		})
	}

	return &dto.AssistantContext{
		GeneratedAt:      now.Format(time.RFC3339),
		Facilities:       toRoomResponses(rooms),
		ApprovedSchedule: schedule,
	}, nil
}

func (s *assistantService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrQuestionRequired
	}
	if s.ai == nil {
		return nil, ErrAssistantUnavailable
	}

	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	answer, err := s.ai.Ask(ctx, systemInstruction, payload, question)
	if err != nil {
		s.logger.Warn("AI 助手调用失败", zap.Error(err))
		return nil, ErrAssistantUnavailable
	}

	return &dto.AskResponse{Answer: answer}, nil
}

// snapshot 优先读取缓存，未命中时重建并回写到读取时的代际
func (s *assistantService) snapshot(ctx context.Context) (*dto.AssistantContext, error) {
	var cached dto.AssistantContext
	gen, hit := s.snapshots.load(ctx, &cached)
	if hit {
		return &cached, nil
	}

	snapshot, err := s.BuildContext(ctx, s.now())
	if err != nil {
		return nil, err
	}

	s.snapshots.store(ctx, gen, snapshot)
	return snapshot, nil
}
