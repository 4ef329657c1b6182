package security

import (
	"context"
	"net/http"
	"time"
)

//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=../../mocks/mock_verifier.go -package=mocks

// Credentials 建连时携带的凭据，Origin/Referer 原样交给校验方做策略判断
type Credentials struct {
	Cookie  string
	Token   string
	Origin  string
	Referer string
}

// Empty 既无 cookie 也无 token
func (c Credentials) Empty() bool {
	return c.Cookie == "" && c.Token == ""
}

// CredentialsFromRequest 从握手请求提取凭据：Authorization 优先，其次 query 中的 token
func CredentialsFromRequest(r *http.Request) Credentials {
	token := BearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return Credentials{
		Cookie:  r.Header.Get("Cookie"),
		Token:   token,
		Origin:  r.Header.Get("Origin"),
		Referer: r.Header.Get("Referer"),
	}
}

// Identity 已认证用户
type Identity struct {
	UserID    uint64 `json:"userId"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}

// Session 校验方返回的会话，User 为空视为未登录
type Session struct {
	ID        string
	ExpiresAt time.Time
	User      *Identity
}

// Verifier 凭据校验协作方
type Verifier interface {
	GetSession(ctx context.Context, cred Credentials) (*Session, error)
}
