package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"campus-venue/internal/dto"
	"campus-venue/internal/model"
	"campus-venue/internal/service"
	"campus-venue/pkg/response"
)

// multipart 表单字段
const (
	formPayload      = "payload"
	formConceptPaper = "concept_paper"
	formFinalForm    = "final_form"
)

// ReservationHandler 预约模块 HTTP 处理器
type ReservationHandler struct {
	reservationSvc service.ReservationService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(reservationSvc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationSvc: reservationSvc}
}

// CreateReservation 提交预约
// POST /api/v1/reservations  (multipart: payload=JSON, concept_paper=PDF)
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	principal, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	if _, err := c.MultipartForm(); err != nil {
		if isBodyTooLarge(err) {
			respondBodyTooLarge(c)
			return
		}
		response.BadRequest(c, 10001, "请使用 multipart/form-data 提交")
		return
	}

	var req dto.CreateReservationRequest
	if err := json.Unmarshal([]byte(c.PostForm(formPayload)), &req); err != nil {
		response.BadRequest(c, 10001, "payload 不是合法的 JSON")
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		respondValidation(c, err)
		return
	}

	conceptPaper, ok := readUploadedFile(c, formConceptPaper)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Create(c.Request.Context(), principal, &req, conceptPaper)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Created(c, result)
}

// ListReservations 预约列表（按 进行中 / 已排期 / 已归档 分区）
// GET /api/v1/reservations?status=&room_id=
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	principal, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.reservationSvc.List(c.Request.Context(), principal, &req)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// GetReservation 预约详情
// GET /api/v1/reservations/:id
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Get(c.Request.Context(), principal, id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateReservation 更新预约（仅覆盖请求中出现的字段）
// PUT /api/v1/reservations/:id
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	var req dto.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.reservationSvc.Update(c.Request.Context(), principal, id, &req)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteReservation 删除预约及其文档
// DELETE /api/v1/reservations/:id
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	if err := h.reservationSvc.Delete(c.Request.Context(), principal, id); err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, nil)
}

// ArchiveReservation 归档预约
// POST /api/v1/reservations/:id/archive
func (h *ReservationHandler) ArchiveReservation(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.Archive(c.Request.Context(), principal, id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// ApproveConcept 概念文件审批通过
// POST /api/v1/reservations/:id/approve-concept
func (h *ReservationHandler) ApproveConcept(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.ApproveConcept(c.Request.Context(), principal, id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// UploadFinalForm 上传终版表格
// POST /api/v1/reservations/:id/final-form  (multipart: final_form=PDF)
func (h *ReservationHandler) UploadFinalForm(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	finalForm, ok := readUploadedFile(c, formFinalForm)
	if !ok {
		return
	}

	result, err := h.reservationSvc.UploadFinalForm(c.Request.Context(), principal, id, finalForm)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// ApproveFinal 最终审批通过
// POST /api/v1/reservations/:id/approve-final
func (h *ReservationHandler) ApproveFinal(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	result, err := h.reservationSvc.ApproveFinal(c.Request.Context(), principal, id)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// DenyReservation 驳回预约
// POST /api/v1/reservations/:id/deny
func (h *ReservationHandler) DenyReservation(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	var req dto.DenyReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.reservationSvc.Deny(c.Request.Context(), principal, id, &req)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.OK(c, result)
}

// DownloadDocument 下载预约文档
// GET /api/v1/reservations/:id/documents/:kind  (kind: concept-paper | final-form)
func (h *ReservationHandler) DownloadDocument(c *gin.Context) {
	principal, id, ok := principalAndID(c)
	if !ok {
		return
	}

	doc, err := h.reservationSvc.GetDocument(c.Request.Context(), principal, id, c.Param("kind"))
	if err != nil {
		handleDomainError(c, err)
		return
	}

	response.Attachment(c, doc.Filename, doc.ContentType, doc.Data)
}

// ── 辅助函数 ──

func principalAndID(c *gin.Context) (model.Principal, uint, bool) {
	principal, ok := MustGetPrincipal(c)
	if !ok {
		return model.Principal{}, 0, false
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return model.Principal{}, 0, false
	}
	return principal, id, true
}

// readUploadedFile 读取 multipart 文件字段；字段缺失时返回 nil，由 Service 判定
func readUploadedFile(c *gin.Context, field string) (*dto.UploadedFile, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		if isBodyTooLarge(err) {
			respondBodyTooLarge(c)
			return nil, false
		}
		response.BadRequest(c, 10001, "上传文件解析失败")
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 10001, "上传文件读取失败")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, 10001, "上传文件读取失败")
		return nil, false
	}

	return &dto.UploadedFile{Filename: fh.Filename, Data: data}, true
}
