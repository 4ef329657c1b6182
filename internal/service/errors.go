package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid            = errors.New("参数错误")
	ErrEmptyContent            = errors.New("消息内容不能为空")
	ErrMissingLoginCredentials = errors.New("缺少登录凭据")
	ErrAuthentication          = errors.New("认证失败")
	ErrNotAuthenticated        = errors.New("尚未认证")
	ErrConversation            = errors.New("会话异常")
	ErrConversationNotFound    = errors.New("会话不存在")
	ErrSelfConversation        = errors.New("不能与自己建立会话")
	ErrTargetUserInvalid       = errors.New("目标用户无效")
	ErrUnknownEvent            = errors.New("未知事件")
	ErrPersistence             = errors.New("消息保存失败")
	UnauthorizedError          = errors.New("权限不足")
	UnExpectedError            = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:            BadRequest,
	ErrEmptyContent:            BadRequest,
	ErrMissingLoginCredentials: Unauthorized,
	ErrAuthentication:          Unauthorized,
	ErrNotAuthenticated:        Unauthorized,
	ErrConversation:            BadRequest,
	ErrConversationNotFound:    NotFound,
	ErrSelfConversation:        BadRequest,
	ErrTargetUserInvalid:       BadRequest,
	ErrUnknownEvent:            BadRequest,
	ErrPersistence:             InternalServerError,
	UnauthorizedError:          Forbidden,
	UnExpectedError:            InternalServerError,
}

// StatusOf 按错误链匹配 ErrorMap，未登记的错误视为系统异常
func StatusOf(err error) (int, error) {
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, target
		}
	}
	return InternalServerError, UnExpectedError
}
