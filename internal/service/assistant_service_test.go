package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-venue/internal/dto"
	"campus-venue/internal/model"
	pkgerrors "campus-venue/pkg/errors"
)

func setupTestAssistantService(ai AssistantClient) (*assistantService, *testRepos, *mockCache) {
	repo, repos := newTestRepos()
	cache := newMockCache()
	svc := NewAssistantService(repo, ai, cache, 5*time.Minute, zap.NewNop()).(*assistantService)
	svc.now = func() time.Time { return fixedNow }

	_ = repos.rooms.Create(context.Background(), &model.Room{Code: "PAT", Name: "Performing Arts Theatre", Capacity: 500})
	_ = repos.rooms.Create(context.Background(), &model.Room{Code: "GYM", Name: "GYM and Sports Center", Capacity: 800})
	return svc, repos, cache
}

func TestAssistantService_BuildContext(t *testing.T) {
	svc, repos, _ := setupTestAssistantService(nil)
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	archivedAt := fixedNow

	repos.reservations.seed(model.Reservation{OwnerID: 2, RoomID: 1, ActivityPurpose: "Recital", StartTime: start, EndTime: start.Add(2 * time.Hour), ConceptPaperRef: "a.pdf", Status: model.StatusApproved})
	repos.reservations.seed(model.Reservation{OwnerID: 2, RoomID: 2, ActivityPurpose: "Intramurals", StartTime: start, EndTime: start.Add(3 * time.Hour), ConceptPaperRef: "b.pdf", Status: model.StatusApproved, ArchivedAt: &archivedAt})
	repos.reservations.seed(model.Reservation{OwnerID: 2, RoomID: 1, ActivityPurpose: "Pending talk", StartTime: start, EndTime: start.Add(time.Hour), ConceptPaperRef: "c.pdf", Status: model.StatusPending})

	snapshot, err := svc.BuildContext(context.Background(), fixedNow)
	if err != nil {
		t.Fatalf("BuildContext 应成功: %v", err)
	}
	if len(snapshot.Facilities) != 2 {
		t.Errorf("期望 2 个场地，实际=%d", len(snapshot.Facilities))
	}
	// 已归档但已批准的预约仍包含在内
	if len(snapshot.ApprovedSchedule) != 2 {
		t.Fatalf("期望 2 条已批准日程，实际=%d", len(snapshot.ApprovedSchedule))
	}
	first := snapshot.ApprovedSchedule[0]
	want := dto.ScheduleEntry{RoomID: 1, Activity: "Recital", Date: "2025-03-01", StartTime: "09:00", EndTime: "11:00"}
	if first != want {
		t.Errorf("期望 %+v，实际 %+v", want, first)
	}
	if snapshot.GeneratedAt != fixedNow.Format(time.RFC3339) {
		t.Errorf("generated_at 不符: %s", snapshot.GeneratedAt)
	}
}

func TestAssistantService_Ask_PassesContextAndQuestion(t *testing.T) {
	ai := &mockAssistantClient{answer: "The Oval is free on March 1."}
	svc, _, cache := setupTestAssistantService(ai)

	resp, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "  Is the Oval free on March 1?  "})
	if err != nil {
		t.Fatalf("Ask 应成功: %v", err)
	}
	if resp.Answer != "The Oval is free on March 1." {
		t.Errorf("应原样透传回复，实际=%q", resp.Answer)
	}
	if ai.lastPrompt != "Is the Oval free on March 1?" {
		t.Errorf("问题未去除首尾空白: %q", ai.lastPrompt)
	}
	if ai.lastSystem != systemInstruction {
		t.Error("应传入固定的系统指令")
	}

	var sent dto.AssistantContext
	if err := json.Unmarshal(ai.lastContext, &sent); err != nil {
		t.Fatalf("上下文应为合法 JSON: %v", err)
	}
	if len(sent.Facilities) != 2 {
		t.Errorf("期望上下文含 2 个场地，实际=%d", len(sent.Facilities))
	}
	if cache.sets != 1 {
		t.Errorf("期望写入缓存 1 次，实际=%d", cache.sets)
	}
}

func TestAssistantService_Ask_UsesCachedSnapshot(t *testing.T) {
	ai := &mockAssistantClient{answer: "ok"}
	svc, repos, cache := setupTestAssistantService(ai)
	ctx := context.Background()

	if _, err := svc.Ask(ctx, &dto.AskRequest{Question: "first"}); err != nil {
		t.Fatalf("Ask 应成功: %v", err)
	}
	// 缓存命中时不重新查询，新场地不可见
	_ = repos.rooms.Create(ctx, &model.Room{Code: "POOL", Name: "Swimming Pool", Capacity: 50})
	if _, err := svc.Ask(ctx, &dto.AskRequest{Question: "second"}); err != nil {
		t.Fatalf("Ask 应成功: %v", err)
	}

	var sent dto.AssistantContext
	_ = json.Unmarshal(ai.lastContext, &sent)
	if len(sent.Facilities) != 2 {
		t.Errorf("期望使用缓存快照（2 个场地），实际=%d", len(sent.Facilities))
	}
	if cache.sets != 1 {
		t.Errorf("缓存命中时不应重复写入，实际 sets=%d", cache.sets)
	}
}

func TestAssistantService_Ask_EmptyQuestion(t *testing.T) {
	ai := &mockAssistantClient{answer: "unused"}
	svc, _, _ := setupTestAssistantService(ai)

	_, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "   "})
	if !errors.Is(err, ErrQuestionRequired) {
		t.Fatalf("期望 ErrQuestionRequired，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Error("空问题应归为校验错误")
	}
	if ai.calls != 0 {
		t.Error("空问题不应调用 AI")
	}
}

func TestAssistantService_Ask_CollaboratorFailure(t *testing.T) {
	ai := &mockAssistantClient{err: errors.New("deadline exceeded")}
	svc, _, _ := setupTestAssistantService(ai)

	_, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "Is the gym free?"})
	if !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("期望 ErrAssistantUnavailable，实际: %v", err)
	}
	if pkgerrors.IsDomain(err) {
		t.Error("AI 故障不应归入业务错误分类")
	}
}

func TestAssistantService_Ask_NotConfigured(t *testing.T) {
	svc, _, _ := setupTestAssistantService(nil)

	_, err := svc.Ask(context.Background(), &dto.AskRequest{Question: "hello"})
	if !errors.Is(err, ErrAssistantUnavailable) {
		t.Fatalf("期望 ErrAssistantUnavailable，实际: %v", err)
	}
}
