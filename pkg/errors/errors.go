package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 业务错误分类 ──
//
// 具体业务错误通过 New 包装其中一个分类，Handler 层按分类映射 HTTP 状态码。

var (
	ErrValidation    = errors.New("参数校验失败")
	ErrAuthorization = errors.New("无权操作")
	ErrNotFound      = errors.New("资源不存在")
	ErrInvalidState  = errors.New("当前状态不允许此操作")
	ErrPrecondition  = errors.New("前置条件未满足")
)

// DomainError 带分类的业务错误
type DomainError struct {
	Kind    error
	Message string
}

// New 创建归属于 kind 分类的业务错误
func New(kind error, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

// Unwrap 使 errors.Is(err, ErrValidation) 等分类判断生效
func (e *DomainError) Unwrap() error { return e.Kind }

// IsDomain 判断 err 是否属于任一业务错误分类
func IsDomain(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAuthorization) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrPrecondition)
}
