package service

import (
	"Courier/internal/pkg/security"
	"context"
	log "log/slog"
)

// AuthService 连接认证：凭据交由会话校验器，任何失败都只拒绝当前连接
type AuthService interface {
	Authenticate(ctx context.Context, creds security.Credentials) (*security.Identity, error)
}

type AuthServiceImpl struct {
	verifier security.Verifier
}

func NewAuthService(verifier security.Verifier) AuthService {
	return &AuthServiceImpl{verifier: verifier}
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, creds security.Credentials) (*security.Identity, error) {
	if creds.Empty() {
		return nil, ErrMissingLoginCredentials
	}

	session, err := s.verifier.GetSession(ctx, creds)
	if err != nil {
		log.WarnContext(ctx, "get session failed", "err", err)
		return nil, ErrAuthentication
	}
	if session == nil || session.User == nil || session.User.UserID == 0 {
		return nil, ErrAuthentication
	}
	return session.User, nil
}
