package dto

// ── AI 助手模块 DTO ──

// AskRequest 用户提问
type AskRequest struct {
	Question string `json:"question" binding:"max=2000"`
}

// AskResponse AI 回复（原样透传）
type AskResponse struct {
	Answer string `json:"answer"`
}

// AssistantContext 提供给 AI 的只读上下文快照
type AssistantContext struct {
	GeneratedAt      string          `json:"generated_at"`
	Facilities       []RoomResponse  `json:"facilities"`
	ApprovedSchedule []ScheduleEntry `json:"approved_schedule"`
}

// ScheduleEntry 已批准日程条目
type ScheduleEntry struct {
	RoomID    uint   `json:"room_id"`
	Activity  string `json:"activity"`
	Date      string `json:"date"`       // 2006-01-02
	StartTime string `json:"start_time"` // 15:04
	EndTime   string `json:"end_time"`   // 15:04
}
