package security

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

// RemoteVerifier 将凭据转发给外部认证服务的 get-session 接口
type RemoteVerifier struct {
	url    string
	client *resty.Client
}

type remoteSession struct {
	Session *struct {
		ID        string    `json:"id"`
		ExpiresAt time.Time `json:"expiresAt"`
	} `json:"session"`
	User *struct {
		ID    flexID `json:"id"`
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"user"`
}

// flexID 兼容数字与字符串两种 id 表示
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = flexID(strings.Trim(string(b), `"`))
	return nil
}

func NewRemoteVerifier(url string, timeout time.Duration) *RemoteVerifier {
	client := resty.New().
		SetTimeout(timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("Accept", "application/json")

	return &RemoteVerifier{url: url, client: client}
}

func (s *RemoteVerifier) GetSession(ctx context.Context, cred Credentials) (*Session, error) {
	var out remoteSession
	r := s.client.R().SetContext(ctx).SetResult(&out)
	if cred.Cookie != "" {
		r.SetHeader("Cookie", cred.Cookie)
	}
	if cred.Token != "" {
		r.SetAuthToken(cred.Token)
	}
	if cred.Origin != "" {
		r.SetHeader("Origin", cred.Origin)
	}
	if cred.Referer != "" {
		r.SetHeader("Referer", cred.Referer)
	}

	resp, err := r.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("remote get-session: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("remote get-session: status %d", resp.StatusCode())
	}

	if out.Session == nil || out.User == nil {
		return nil, nil
	}
	userID, err := strconv.ParseUint(string(out.User.ID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("remote get-session: malformed user id %q", out.User.ID)
	}
	return &Session{
		ID:        out.Session.ID,
		ExpiresAt: out.Session.ExpiresAt,
		User:      &Identity{UserID: userID, Nickname: out.User.Name, AvatarURL: out.User.Image},
	}, nil
}
