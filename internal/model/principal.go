package model

// ── 角色 ──

const (
	RoleAdmin     = "admin"
	RoleRequester = "requester"
)

// Principal 已认证的请求主体，由 JWT 中间件按请求构造，请求内不可变
type Principal struct {
	ID         uint
	Role       string
	Department string
}

// IsAdmin 是否管理员
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Owns 是否为该用户 ID 对应资源的所有者
func (p Principal) Owns(ownerID uint) bool { return p.ID == ownerID }

// CanManage 管理员或资源所有者
func (p Principal) CanManage(ownerID uint) bool { return p.IsAdmin() || p.Owns(ownerID) }

// ValidRole 校验角色取值
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleRequester
}
