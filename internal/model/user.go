package model

// User 用户表 — 对应 users
type User struct {
	ID           uint   `gorm:"primaryKey"                                   json:"id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex"        json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                   json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'requester'" json:"role"`
	Department   string `gorm:"type:varchar(100)"                            json:"department,omitempty"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Principal 转换为请求主体
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Role: u.Role, Department: u.Department}
}
