package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus-venue/internal/model"
	"campus-venue/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetPrincipal 从 JWT 中间件注入的字段构造请求主体
func MustGetPrincipal(c *gin.Context) (model.Principal, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return model.Principal{}, false
	}
	role := c.GetString("role")
	if !model.ValidRole(role) {
		response.Unauthorized(c, 10002, "未认证")
		return model.Principal{}, false
	}
	return model.Principal{
		ID:         id,
		Role:       role,
		Department: c.GetString("department"),
	}, true
}

// tokenInfo 当前 Token 的 jti 与过期时间（登出用）
func tokenInfo(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}

// parseIDParam 解析路径中的正整数 ID，失败时写入 400 响应
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, "ID 格式无效")
		return 0, false
	}
	return uint(id), true
}
