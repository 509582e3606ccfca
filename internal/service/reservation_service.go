package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"campus-venue/internal/dto"
	"campus-venue/internal/model"
	"campus-venue/internal/repository"
	pkgerrors "campus-venue/pkg/errors"
	"campus-venue/pkg/storage"
)

var (
	ErrReservationNotFound  = pkgerrors.New(pkgerrors.ErrNotFound, "预约不存在")
	ErrDocumentNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "文档不存在")
	ErrPurposeRequired      = pkgerrors.New(pkgerrors.ErrValidation, "活动目的不能为空")
	ErrInvalidTimeFormat    = pkgerrors.New(pkgerrors.ErrValidation, "时间格式无效")
	ErrInvalidTimeWindow    = pkgerrors.New(pkgerrors.ErrValidation, "开始时间必须早于结束时间")
	ErrInvalidAttendees     = pkgerrors.New(pkgerrors.ErrValidation, "参加人数不能为负数")
	ErrInvalidEquipment     = pkgerrors.New(pkgerrors.ErrValidation, "设备需求只能是非负数量或布尔值")
	ErrDocumentRequired     = pkgerrors.New(pkgerrors.ErrValidation, "请上传 PDF 文件")
	ErrDocumentRejected     = pkgerrors.New(pkgerrors.ErrValidation, "文件不符合要求：仅支持 10MB 以内的 PDF")
	ErrDenialReasonRequired = pkgerrors.New(pkgerrors.ErrValidation, "驳回原因不能为空")
	ErrInvalidStatusValue   = pkgerrors.New(pkgerrors.ErrValidation, "无效的预约状态")
	ErrInvalidDocumentKind  = pkgerrors.New(pkgerrors.ErrValidation, "无效的文档类型")
	ErrAdminOnly            = pkgerrors.New(pkgerrors.ErrAuthorization, "仅管理员可执行此操作")
	ErrNotOwner             = pkgerrors.New(pkgerrors.ErrAuthorization, "仅预约申请人可执行此操作")
	ErrNoPermission         = pkgerrors.New(pkgerrors.ErrAuthorization, "无权访问该预约")
	ErrNotPending           = pkgerrors.New(pkgerrors.ErrInvalidState, "预约不处于待审核状态")
	ErrConceptNotApproved   = pkgerrors.New(pkgerrors.ErrInvalidState, "概念文件尚未通过审核")
	ErrAlreadyTerminal      = pkgerrors.New(pkgerrors.ErrInvalidState, "预约已批准或已驳回")
	ErrFinalFormMissing     = pkgerrors.New(pkgerrors.ErrPrecondition, "终版表格尚未上传")
)

// 文档类型
const (
	DocumentConceptPaper = "concept-paper"
	DocumentFinalForm    = "final-form"
)

// 可接受的时间格式，按顺序尝试
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ReservationService 预约生命周期业务接口
type ReservationService interface {
	Create(ctx context.Context, principal model.Principal, req *dto.CreateReservationRequest, conceptPaper *dto.UploadedFile) (*dto.ReservationResponse, error)
	Get(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error)
	List(ctx context.Context, principal model.Principal, req *dto.ReservationListRequest) (*dto.PartitionedReservationsResponse, error)
	// Update 逐字段宽松合并，可直接改写状态
	Update(ctx context.Context, principal model.Principal, id uint, req *dto.UpdateReservationRequest) (*dto.ReservationResponse, error)
	Delete(ctx context.Context, principal model.Principal, id uint) error
	Archive(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error)
	ApproveConcept(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error)
	UploadFinalForm(ctx context.Context, principal model.Principal, id uint, finalForm *dto.UploadedFile) (*dto.ReservationResponse, error)
	ApproveFinal(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error)
	Deny(ctx context.Context, principal model.Principal, id uint, req *dto.DenyReservationRequest) (*dto.ReservationResponse, error)
	GetDocument(ctx context.Context, principal model.Principal, id uint, kind string) (*dto.DocumentFile, error)
}

type reservationService struct {
	repo      *repository.Repository
	blobs     BlobStore
	snapshots *contextSnapshots
	logger    *zap.Logger
	now       func() time.Time
}

// NewReservationService 创建 ReservationService 实例
func NewReservationService(
	repo *repository.Repository,
	blobs BlobStore,
	cache SnapshotCache,
	logger *zap.Logger,
) ReservationService {
	return &reservationService{
		repo:      repo,
		blobs:     blobs,
		snapshots: newContextSnapshots(cache, 0, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// ── 提交 ──

func (s *reservationService) Create(
	ctx context.Context,
	principal model.Principal,
	req *dto.CreateReservationRequest,
	conceptPaper *dto.UploadedFile,
) (*dto.ReservationResponse, error) {
	// 1. 字段校验
	purpose := strings.TrimSpace(req.ActivityPurpose)
	if purpose == "" {
		return nil, ErrPurposeRequired
	}
	if req.Attendees < 0 {
		return nil, ErrInvalidAttendees
	}
	if err := validateEquipment(req.Equipment); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if conceptPaper == nil || len(conceptPaper.Data) == 0 {
		return nil, ErrDocumentRequired
	}

	// 2. 场地存在性
	room, err := s.loadRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	// 3. 先存文档，再落库
	ref, err := s.storeDocument(ctx, conceptPaper)
	if err != nil {
		return nil, err
	}

	reservation := &model.Reservation{
		OwnerID:            principal.ID,
		RoomID:             room.ID,
		ActivityPurpose:    purpose,
		Division:           req.Division,
		Attendees:          req.Attendees,
		ParticipantType:    req.ParticipantType,
		ParticipantDetails: req.ParticipantDetails,
		Classification:     req.Classification,
		PersonInCharge:     req.PersonInCharge,
		ContactNumber:      req.ContactNumber,
		Equipment:          toJSONMap(req.Equipment),
		StartTime:          start,
		EndTime:            end,
		ConceptPaperRef:    ref,
		Status:             model.StatusPending,
		DateFiled:          s.now(),
	}
	if err := s.repo.Reservation.Create(ctx, reservation); err != nil {
		s.logger.Error("创建预约失败", zap.Error(err))
		s.discardBlob(ctx, ref)
		return nil, err
	}
	reservation.Room = room

	s.logger.Info("预约已提交",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("owner_id", principal.ID),
		zap.Uint("room_id", room.ID),
	)

	resp := toReservationResponse(reservation)
	return &resp, nil
}

// ── 查询 ──

func (s *reservationService) Get(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(reservation.OwnerID) {
		return nil, ErrNoPermission
	}
	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *reservationService) List(
	ctx context.Context,
	principal model.Principal,
	req *dto.ReservationListRequest,
) (*dto.PartitionedReservationsResponse, error) {
	filter := repository.ReservationFilter{RoomID: req.RoomID}
	if req.Status != "" {
		if !model.ValidStatus(req.Status) {
			return nil, ErrInvalidStatusValue
		}
		filter.Status = req.Status
	}
	// 申请人只能看到自己的预约
	if !principal.IsAdmin() {
		ownerID := principal.ID
		filter.OwnerID = &ownerID
	}

	list, err := s.repo.Reservation.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询预约列表失败", zap.Error(err))
		return nil, err
	}

	parts := Partition(list)
	return &dto.PartitionedReservationsResponse{
		Active:    toReservationResponses(parts.Active),
		Scheduled: toReservationResponses(parts.Scheduled),
		Archived:  toReservationResponses(parts.Archived),
	}, nil
}

// ── 审批流转 ──

func (s *reservationService) ApproveConcept(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error) {
	if !principal.IsAdmin() {
		return nil, ErrAdminOnly
	}
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkApproveConcept(reservation); err != nil {
		return nil, err
	}

	from := reservation.Status
	applyStatus(reservation, model.StatusConceptApproved, nil)
	if err := s.persist(ctx, reservation); err != nil {
		return nil, err
	}
	s.logTransition(reservation, principal, from)

	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *reservationService) UploadFinalForm(
	ctx context.Context,
	principal model.Principal,
	id uint,
	finalForm *dto.UploadedFile,
) (*dto.ReservationResponse, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.Owns(reservation.OwnerID) {
		return nil, ErrNotOwner
	}
	if err := checkUploadFinalForm(reservation); err != nil {
		return nil, err
	}
	if finalForm == nil || len(finalForm.Data) == 0 {
		return nil, ErrDocumentRequired
	}

	ref, err := s.storeDocument(ctx, finalForm)
	if err != nil {
		return nil, err
	}

	var previous string
	if reservation.FinalFormRef != nil {
		previous = *reservation.FinalFormRef
	}
	setFinalForm(reservation, ref)
	if err := s.persist(ctx, reservation); err != nil {
		s.discardBlob(ctx, ref)
		return nil, err
	}
	// 重新上传时清理旧文件
	if previous != "" {
		s.discardBlob(ctx, previous)
	}

	s.logger.Info("终版表格已上传",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("owner_id", principal.ID),
	)

	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *reservationService) ApproveFinal(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error) {
	if !principal.IsAdmin() {
		return nil, ErrAdminOnly
	}
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkApproveFinal(reservation); err != nil {
		return nil, err
	}

	from := reservation.Status
	applyStatus(reservation, model.StatusApproved, nil)
	if err := s.persist(ctx, reservation); err != nil {
		return nil, err
	}
	s.logTransition(reservation, principal, from)
	s.invalidateSnapshot(ctx)

	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *reservationService) Deny(
	ctx context.Context,
	principal model.Principal,
	id uint,
	req *dto.DenyReservationRequest,
) (*dto.ReservationResponse, error) {
	if !principal.IsAdmin() {
		return nil, ErrAdminOnly
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrDenialReasonRequired
	}
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkDeny(reservation); err != nil {
		return nil, err
	}

	from := reservation.Status
	applyStatus(reservation, model.StatusDenied, &reason)
	if err := s.persist(ctx, reservation); err != nil {
		return nil, err
	}
	s.logTransition(reservation, principal, from)

	resp := toReservationResponse(reservation)
	return &resp, nil
}

// ── 归档 / 删除 ──

func (s *reservationService) Archive(ctx context.Context, principal model.Principal, id uint) (*dto.ReservationResponse, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(reservation.OwnerID) {
		return nil, ErrNoPermission
	}

	// 重复归档保留首次归档时间
	if !reservation.IsArchived() {
		now := s.now()
		reservation.ArchivedAt = &now
		if err := s.persist(ctx, reservation); err != nil {
			return nil, err
		}
		s.logger.Info("预约已归档",
			zap.Uint("reservation_id", reservation.ID),
			zap.Uint("operator_id", principal.ID),
			zap.String("status", reservation.Status),
		)
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

func (s *reservationService) Delete(ctx context.Context, principal model.Principal, id uint) error {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return err
	}
	if !principal.CanManage(reservation.OwnerID) {
		return ErrNoPermission
	}

	if err := s.repo.Reservation.Delete(ctx, reservation.ID); err != nil {
		s.logger.Error("删除预约失败", zap.Uint("reservation_id", id), zap.Error(err))
		return err
	}

	// 文档清理失败不影响删除结果
	s.discardBlob(ctx, reservation.ConceptPaperRef)
	if reservation.FinalFormRef != nil {
		s.discardBlob(ctx, *reservation.FinalFormRef)
	}

	s.logger.Info("预约已删除",
		zap.Uint("reservation_id", id),
		zap.Uint("operator_id", principal.ID),
	)
	if reservation.Status == model.StatusApproved {
		s.invalidateSnapshot(ctx)
	}
	return nil
}

// ── 宽松更新 ──

func (s *reservationService) Update(
	ctx context.Context,
	principal model.Principal,
	id uint,
	req *dto.UpdateReservationRequest,
) (*dto.ReservationResponse, error) {
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(reservation.OwnerID) {
		return nil, ErrNoPermission
	}

	if req.RoomID != nil && *req.RoomID != reservation.RoomID {
		room, err := s.loadRoom(ctx, *req.RoomID)
		if err != nil {
			return nil, err
		}
		reservation.RoomID = room.ID
		reservation.Room = room
	}
	if req.ActivityPurpose != nil {
		purpose := strings.TrimSpace(*req.ActivityPurpose)
		if purpose == "" {
			return nil, ErrPurposeRequired
		}
		reservation.ActivityPurpose = purpose
	}
	if req.Division != nil {
		reservation.Division = *req.Division
	}
	if req.Attendees != nil {
		if *req.Attendees < 0 {
			return nil, ErrInvalidAttendees
		}
		reservation.Attendees = *req.Attendees
	}
	if req.ParticipantType != nil {
		reservation.ParticipantType = *req.ParticipantType
	}
	if req.ParticipantDetails != nil {
		reservation.ParticipantDetails = *req.ParticipantDetails
	}
	if req.Classification != nil {
		reservation.Classification = *req.Classification
	}
	if req.PersonInCharge != nil {
		reservation.PersonInCharge = *req.PersonInCharge
	}
	if req.ContactNumber != nil {
		reservation.ContactNumber = *req.ContactNumber
	}
	if req.Equipment != nil {
		if err := validateEquipment(*req.Equipment); err != nil {
			return nil, err
		}
		reservation.Equipment = toJSONMap(*req.Equipment)
	}
	if req.StartTime != nil {
		t, err := parseDateTime(*req.StartTime)
		if err != nil {
			return nil, err
		}
		reservation.StartTime = t
	}
	if req.EndTime != nil {
		t, err := parseDateTime(*req.EndTime)
		if err != nil {
			return nil, err
		}
		reservation.EndTime = t
	}
	if !reservation.StartTime.Before(reservation.EndTime) {
		return nil, ErrInvalidTimeWindow
	}

	// 状态可直接改写，但仍须维持驳回原因不变量
	from := reservation.Status
	if req.Status != nil || req.DenialReason != nil {
		status := reservation.Status
		if req.Status != nil {
			if !model.ValidStatus(*req.Status) {
				return nil, ErrInvalidStatusValue
			}
			status = *req.Status
		}
		reason := reservation.DenialReason
		if req.DenialReason != nil {
			trimmed := strings.TrimSpace(*req.DenialReason)
			reason = &trimmed
		}
		if status == model.StatusDenied && (reason == nil || *reason == "") {
			return nil, ErrDenialReasonRequired
		}
		applyStatus(reservation, status, reason)
	}

	if err := s.persist(ctx, reservation); err != nil {
		return nil, err
	}

	if from != reservation.Status {
		s.logger.Warn("通过更新接口直接修改预约状态",
			zap.Uint("reservation_id", reservation.ID),
			zap.Uint("operator_id", principal.ID),
			zap.String("from", from),
			zap.String("to", reservation.Status),
		)
	}
	if from == model.StatusApproved || reservation.Status == model.StatusApproved {
		s.invalidateSnapshot(ctx)
	}

	resp := toReservationResponse(reservation)
	return &resp, nil
}

// ── 文档下载 ──

func (s *reservationService) GetDocument(
	ctx context.Context,
	principal model.Principal,
	id uint,
	kind string,
) (*dto.DocumentFile, error) {
	if kind != DocumentConceptPaper && kind != DocumentFinalForm {
		return nil, ErrInvalidDocumentKind
	}
	reservation, err := s.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(reservation.OwnerID) {
		return nil, ErrNoPermission
	}

	ref := reservation.ConceptPaperRef
	if kind == DocumentFinalForm {
		if reservation.FinalFormRef == nil {
			return nil, ErrDocumentNotFound
		}
		ref = *reservation.FinalFormRef
	}

	data, err := s.blobs.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) || errors.Is(err, storage.ErrInvalidRef) {
			s.logger.Warn("预约文档缺失",
				zap.Uint("reservation_id", id),
				zap.String("kind", kind),
				zap.Error(err),
			)
			return nil, ErrDocumentNotFound
		}
		s.logger.Error("读取预约文档失败", zap.Uint("reservation_id", id), zap.Error(err))
		return nil, err
	}

	return &dto.DocumentFile{
		Filename:    fmt.Sprintf("reservation-%d-%s.pdf", id, kind),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// ── 内部方法 ──

func (s *reservationService) loadReservation(ctx context.Context, id uint) (*model.Reservation, error) {
	reservation, err := s.repo.Reservation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.Uint("reservation_id", id), zap.Error(err))
		return nil, err
	}
	return reservation, nil
}

func (s *reservationService) loadRoom(ctx context.Context, id uint) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("查询场地失败", zap.Uint("room_id", id), zap.Error(err))
		return nil, err
	}
	return room, nil
}

func (s *reservationService) persist(ctx context.Context, reservation *model.Reservation) error {
	if err := s.repo.Reservation.Update(ctx, reservation); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新预约失败", zap.Uint("reservation_id", reservation.ID), zap.Error(err))
		}
		return err
	}
	return nil
}

func (s *reservationService) storeDocument(ctx context.Context, file *dto.UploadedFile) (string, error) {
	ref, err := s.blobs.Store(ctx, file.Data, filepath.Ext(file.Filename))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) ||
			errors.Is(err, storage.ErrFileTooLarge) ||
			errors.Is(err, storage.ErrEmptyFile) {
			return "", ErrDocumentRejected
		}
		s.logger.Error("保存文档失败", zap.String("filename", file.Filename), zap.Error(err))
		return "", err
	}
	return ref, nil
}

// discardBlob 删除文档，失败仅记录日志
func (s *reservationService) discardBlob(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.blobs.Delete(ctx, ref); err != nil {
		s.logger.Warn("清理文档失败", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *reservationService) invalidateSnapshot(ctx context.Context) {
	s.snapshots.invalidate(ctx)
}

func (s *reservationService) logTransition(reservation *model.Reservation, principal model.Principal, from string) {
	s.logger.Info("预约状态变更",
		zap.Uint("reservation_id", reservation.ID),
		zap.Uint("operator_id", principal.ID),
		zap.String("from", from),
		zap.String("to", reservation.Status),
	)
}

// ── 校验与转换 ──

func parseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimeFormat
}

func parseWindow(startValue, endValue string) (time.Time, time.Time, error) {
	start, err := parseDateTime(startValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDateTime(endValue)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrInvalidTimeWindow
	}
	return start, end, nil
}

// validateEquipment 设备需求值只允许非负数量或布尔值
func validateEquipment(equipment map[string]interface{}) error {
	for name, v := range equipment {
		if strings.TrimSpace(name) == "" {
			return ErrInvalidEquipment
		}
		switch n := v.(type) {
		case bool:
		case float64:
			if n < 0 {
				return ErrInvalidEquipment
			}
		case int:
			if n < 0 {
				return ErrInvalidEquipment
			}
		case json.Number:
			f, err := n.Float64()
			if err != nil || f < 0 {
				return ErrInvalidEquipment
			}
		default:
			return ErrInvalidEquipment
		}
	}
	return nil
}

func toJSONMap(equipment map[string]interface{}) datatypes.JSONMap {
	m := datatypes.JSONMap{}
	for k, v := range equipment {
		m[k] = v
	}
	return m
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func toReservationResponse(r *model.Reservation) dto.ReservationResponse {
	resp := dto.ReservationResponse{
		ID:                 r.ID,
		OwnerID:            r.OwnerID,
		RoomID:             r.RoomID,
		ActivityPurpose:    r.ActivityPurpose,
		Division:           r.Division,
		Attendees:          r.Attendees,
		ParticipantType:    r.ParticipantType,
		ParticipantDetails: r.ParticipantDetails,
		Classification:     r.Classification,
		PersonInCharge:     r.PersonInCharge,
		ContactNumber:      r.ContactNumber,
		Equipment:          map[string]interface{}(toJSONMap(r.Equipment)),
		StartTime:          formatTime(r.StartTime),
		EndTime:            formatTime(r.EndTime),
		ConceptPaperRef:    r.ConceptPaperRef,
		FinalFormRef:       r.FinalFormRef,
		FinalFormUploaded:  r.FinalFormUploaded,
		Status:             r.Status,
		DisplayStatus:      r.DisplayStatus(),
		DenialReason:       r.DenialReason,
		DateFiled:          formatTime(r.DateFiled),
	}
	if r.Room != nil {
		resp.RoomCode = r.Room.Code
		resp.RoomName = r.Room.Name
	}
	if r.ArchivedAt != nil {
		archivedAt := formatTime(*r.ArchivedAt)
		resp.ArchivedAt = &archivedAt
	}
	return resp
}

func toReservationResponses(list []model.Reservation) []dto.ReservationResponse {
	result := make([]dto.ReservationResponse, 0, len(list))
	for i := range list {
		result = append(result, toReservationResponse(&list[i]))
	}
	return result
}
