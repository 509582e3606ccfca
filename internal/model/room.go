package model

// Room 场地表 — 对应 rooms（初始化时写入，之后只读）
type Room struct {
	ID            uint   `gorm:"primaryKey"                          json:"id"`
	Code          string `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`
	Name          string `gorm:"type:varchar(100);not null"          json:"name"`
	Capacity      int    `gorm:"not null"                            json:"capacity"`
	Description   string `gorm:"type:text"                           json:"description,omitempty"`
	UsualActivity string `gorm:"type:text"                           json:"usual_activity,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Room) TableName() string { return "rooms" }
