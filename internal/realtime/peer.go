package realtime

import (
	"Courier/internal/pkg/security"
	"errors"
)

var (
	ErrPeerClosed = errors.New("peer closed")
	ErrOutboxFull = errors.New("peer outbox full")
)

// Peer 一条双向连接的发送端抽象，Send 不阻塞，连接关闭后返回 ErrPeerClosed
type Peer interface {
	ID() string
	Send(evt *Event) error
	Close(code int, reason string)
}

// Session 认证成功时创建的 {连接, 用户} 记录，贯穿整个调用链
type Session struct {
	Peer
	UserID   uint64
	Identity *security.Identity
}

func NewSession(peer Peer, identity *security.Identity) *Session {
	return &Session{Peer: peer, UserID: identity.UserID, Identity: identity}
}
