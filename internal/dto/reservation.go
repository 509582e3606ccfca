package dto

// ── 预约模块 DTO ──

// CreateReservationRequest 提交预约请求（multipart 中 payload 字段的 JSON）
// 时间格式支持 "2006-01-02T15:04"（表单 datetime-local）与 RFC3339
type CreateReservationRequest struct {
	RoomID             uint                   `json:"room_id"             binding:"required"`
	ActivityPurpose    string                 `json:"activity_purpose"    binding:"max=150"`
	Division           string                 `json:"division"            binding:"max=100"`
	Attendees          int                    `json:"attendees"`
	ParticipantType    string                 `json:"participant_type"    binding:"max=50"`
	ParticipantDetails string                 `json:"participant_details" binding:"max=100"`
	Classification     string                 `json:"classification"      binding:"max=50"`
	PersonInCharge     string                 `json:"person_in_charge"    binding:"max=100"`
	ContactNumber      string                 `json:"contact_number"      binding:"max=30"`
	Equipment          map[string]interface{} `json:"equipment"`
	StartTime          string                 `json:"start_time"`
	EndTime            string                 `json:"end_time"`
}

// UpdateReservationRequest 更新预约请求（仅更新非 nil 字段）
type UpdateReservationRequest struct {
	RoomID             *uint                   `json:"room_id"`
	ActivityPurpose    *string                 `json:"activity_purpose"    binding:"omitempty,max=150"`
	Division           *string                 `json:"division"            binding:"omitempty,max=100"`
	Attendees          *int                    `json:"attendees"`
	ParticipantType    *string                 `json:"participant_type"    binding:"omitempty,max=50"`
	ParticipantDetails *string                 `json:"participant_details" binding:"omitempty,max=100"`
	Classification     *string                 `json:"classification"      binding:"omitempty,max=50"`
	PersonInCharge     *string                 `json:"person_in_charge"    binding:"omitempty,max=100"`
	ContactNumber      *string                 `json:"contact_number"      binding:"omitempty,max=30"`
	Equipment          *map[string]interface{} `json:"equipment"`
	StartTime          *string                 `json:"start_time"`
	EndTime            *string                 `json:"end_time"`
	Status             *string                 `json:"status"`
	DenialReason       *string                 `json:"denial_reason"       binding:"omitempty,max=500"`
}

// DenyReservationRequest 驳回预约请求
type DenyReservationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReservationListRequest 预约列表查询参数
type ReservationListRequest struct {
	Status string `form:"status"`
	RoomID *uint  `form:"room_id"`
}

// UploadedFile 已读入内存的上传文件
type UploadedFile struct {
	Filename string
	Data     []byte
}

// DocumentFile 文档下载内容
type DocumentFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReservationResponse 预约信息响应
type ReservationResponse struct {
	ID                 uint                   `json:"id"`
	OwnerID            uint                   `json:"owner_id"`
	RoomID             uint                   `json:"room_id"`
	RoomCode           string                 `json:"room_code,omitempty"`
	RoomName           string                 `json:"room_name,omitempty"`
	ActivityPurpose    string                 `json:"activity_purpose"`
	Division           string                 `json:"division,omitempty"`
	Attendees          int                    `json:"attendees"`
	ParticipantType    string                 `json:"participant_type,omitempty"`
	ParticipantDetails string                 `json:"participant_details,omitempty"`
	Classification     string                 `json:"classification,omitempty"`
	PersonInCharge     string                 `json:"person_in_charge,omitempty"`
	ContactNumber      string                 `json:"contact_number,omitempty"`
	Equipment          map[string]interface{} `json:"equipment"`
	StartTime          string                 `json:"start_time"`
	EndTime            string                 `json:"end_time"`
	ConceptPaperRef    string                 `json:"concept_paper_ref"`
	FinalFormRef       *string                `json:"final_form_ref,omitempty"`
	FinalFormUploaded  bool                   `json:"final_form_uploaded"`
	Status             string                 `json:"status"`
	DisplayStatus      string                 `json:"display_status"`
	DenialReason       *string                `json:"denial_reason,omitempty"`
	DateFiled          string                 `json:"date_filed"`
	ArchivedAt         *string                `json:"archived_at,omitempty"`
}

// PartitionedReservationsResponse 预约分区视图
type PartitionedReservationsResponse struct {
	Active    []ReservationResponse `json:"active"`
	Scheduled []ReservationResponse `json:"scheduled"`
	Archived  []ReservationResponse `json:"archived"`
}
