package security

import (
	"Courier/internal/pkg/consts"
	"Courier/internal/pkg/redis"
	"Courier/internal/repository"
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// JWTVerifier 本地校验：Bearer JWT（带吊销检查）或 Redis 中的会话 cookie
type JWTVerifier struct {
	secret     string
	cookieName string
	users      repository.UserRepo
}

func NewJWTVerifier(secret, cookieName string, users repository.UserRepo) *JWTVerifier {
	return &JWTVerifier{secret: secret, cookieName: cookieName, users: users}
}

func (s *JWTVerifier) GetSession(ctx context.Context, cred Credentials) (*Session, error) {
	if cred.Token != "" {
		return s.fromToken(ctx, cred.Token)
	}
	if cred.Cookie != "" {
		return s.fromCookie(ctx, cred.Cookie)
	}
	return nil, nil
}

func (s *JWTVerifier) fromToken(ctx context.Context, token string) (*Session, error) {
	signature, err := ExtractSignature(token)
	if err != nil {
		return nil, err
	}
	revoked, err := redis.Exists(ctx, consts.TokenRevokedKey+signature)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, nil
	}

	claims, err := ValidateToken(s.secret, token)
	if err != nil {
		return nil, err
	}

	identity, err := s.loadIdentity(ctx, claims.UserID)
	if err != nil || identity == nil {
		return nil, err
	}
	return &Session{ID: signature, ExpiresAt: claims.ExpiresAt.Time, User: identity}, nil
}

func (s *JWTVerifier) fromCookie(ctx context.Context, header string) (*Session, error) {
	r := &http.Request{Header: http.Header{"Cookie": {header}}}
	c, err := r.Cookie(s.cookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	raw, err := redis.GetValue(ctx, consts.IMSessionKey+c.Value)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed session %s: %w", c.Value, err)
	}

	identity, err := s.loadIdentity(ctx, userID)
	if err != nil || identity == nil {
		return nil, err
	}
	return &Session{ID: c.Value, User: identity}, nil
}

func (s *JWTVerifier) loadIdentity(ctx context.Context, userID uint64) (*Identity, error) {
	user, err := s.users.GetUserById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsBan {
		return nil, nil
	}
	avatar := user.AvatarURL
	if avatar == "" {
		avatar = consts.DefaultAvatarURL
	}
	return &Identity{UserID: user.ID, Nickname: user.Nickname, AvatarURL: avatar}, nil
}
