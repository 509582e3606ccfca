package model

import (
	"time"

	"gorm.io/datatypes"
)

// ── 预约状态（持久化取值，需原样往返） ──

const (
	StatusPending         = "pending"
	StatusConceptApproved = "concept-approved"
	StatusApproved        = "approved"
	StatusDenied          = "denied"
)

// DisplayArchived 归档视图标签，仅用于展示，永不持久化
const DisplayArchived = "archived"

// ValidStatus 校验状态取值
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConceptApproved, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// Reservation 场地预约表 — 对应 reservations
//
// 不变量：
//   - StartTime < EndTime
//   - ConceptPaperRef 非空
//   - FinalFormUploaded == (FinalFormRef != nil)
//   - DenialReason != nil 当且仅当 Status == denied
//   - ArchivedAt 与 Status 正交，归档不改变状态
type Reservation struct {
	ID      uint `gorm:"primaryKey"   json:"id"`
	OwnerID uint `gorm:"not null;index" json:"owner_id"`
	RoomID  uint `gorm:"not null;index" json:"room_id"`

	// 活动信息
	ActivityPurpose    string            `gorm:"type:varchar(150);not null" json:"activity_purpose"`
	Division           string            `gorm:"type:varchar(100)"          json:"division,omitempty"`
	Attendees          int               `gorm:"not null;default:0"         json:"attendees"`
	ParticipantType    string            `gorm:"type:varchar(50)"           json:"participant_type,omitempty"`
	ParticipantDetails string            `gorm:"type:varchar(100)"          json:"participant_details,omitempty"`
	Classification     string            `gorm:"type:varchar(50)"           json:"classification,omitempty"`
	PersonInCharge     string            `gorm:"type:varchar(100)"          json:"person_in_charge,omitempty"`
	ContactNumber      string            `gorm:"type:varchar(30)"           json:"contact_number,omitempty"`
	Equipment          datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"equipment"` // 设备名 → 数量 | 是否需要

	// 时间窗
	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	// 文档
	ConceptPaperRef   string  `gorm:"type:varchar(200);not null" json:"concept_paper_ref"`
	FinalFormRef      *string `gorm:"type:varchar(200)"          json:"final_form_ref,omitempty"`
	FinalFormUploaded bool    `gorm:"not null;default:false"     json:"final_form_uploaded"`

	// 生命周期
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // pending | concept-approved | approved | denied
	DenialReason *string    `gorm:"type:varchar(500)"                           json:"denial_reason,omitempty"`
	DateFiled    time.Time  `gorm:"not null"                                    json:"date_filed"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
	VersionedModel

	// 关联
	Room  *Room `gorm:"foreignKey:RoomID"  json:"room,omitempty"`
	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// IsArchived 是否已归档
func (r *Reservation) IsArchived() bool { return r.ArchivedAt != nil }

// DisplayStatus 展示状态：已归档的预约显示为 archived，其余为存储状态
func (r *Reservation) DisplayStatus() string {
	if r.IsArchived() {
		return DisplayArchived
	}
	return r.Status
}
