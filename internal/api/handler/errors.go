package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "campus-venue/pkg/errors"
	"campus-venue/pkg/response"
)

// handleDomainError 按业务错误分类映射 HTTP 状态码
//
//	校验失败 → 400   无权操作 → 403   不存在 → 404
//	状态不允许 → 409  乐观锁冲突 → 409  前置条件未满足 → 422
//	其余 → 500
func handleDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10009, err.Error())
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, 10001, domainMessage(err))
	case errors.Is(err, pkgerrors.ErrAuthorization):
		response.Forbidden(c, 10003, domainMessage(err))
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, 10006, domainMessage(err))
	case errors.Is(err, pkgerrors.ErrInvalidState):
		response.Conflict(c, 10007, domainMessage(err))
	case errors.Is(err, pkgerrors.ErrPrecondition):
		response.Unprocessable(c, 10008, domainMessage(err))
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

func domainMessage(err error) string {
	var de *pkgerrors.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// respondValidation 请求参数绑定失败，details 携带校验器给出的字段信息
func respondValidation(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}

// isBodyTooLarge 判断是否因请求体超限导致读取失败
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func respondBodyTooLarge(c *gin.Context) {
	response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
}
