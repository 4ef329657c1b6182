package api

import (
	"Courier/internal/api/config"
	"Courier/internal/api/dto"
	"Courier/internal/api/handler"
	"Courier/internal/pkg/consts"
	rdb "Courier/internal/pkg/redis"
	"Courier/internal/pkg/security"
	"Courier/internal/realtime"
	"Courier/internal/realtime/realtimetest"
	"Courier/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "route-secret"

func newTestRouter(t *testing.T) (*gin.Engine, service.IMService, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Rdb.Close() })

	cfg := &config.Config{Verifier: config.VerifierConfig{JWTSecret: testSecret}}
	im := service.NewIMService(realtime.NewRegistry(realtime.RegistryHooks{}), realtime.NewRooms(), nil, nil, nil)
	group := &HandlersGroup{
		WSHandler: handler.NewWsHandler(cfg.IM, nil, im),
		IMHandler: handler.NewIMHandler(im),
	}
	return SetupRouter(group, cfg), im, mr
}

func TestRouter_Ping(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestRouter_OnlineUsers(t *testing.T) {
	r, im, mr := newTestRouter(t)
	im.Connect(context.Background(), realtimetest.NewPeer(), &security.Identity{UserID: 3})
	im.Connect(context.Background(), realtimetest.NewPeer(), &security.Identity{UserID: 1})

	token, err := security.GenerateToken(testSecret, 1, nil)
	require.NoError(t, err)

	get := func(authorization string) dto.Response {
		req := httptest.NewRequest(http.MethodGet, "/api/im/online", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	t.Run("should require a bearer token", func(t *testing.T) {
		require.Equal(t, 401, get("").Code)
	})

	t.Run("should list online users", func(t *testing.T) {
		req := require.New(t)
		resp := get("Bearer " + token)
		req.Equal(200, resp.Code)
		req.Equal(map[string]any{"users": []any{float64(1), float64(3)}}, resp.Data)
	})

	t.Run("should reject a revoked token", func(t *testing.T) {
		signature, err := security.ExtractSignature(token)
		require.NoError(t, err)
		require.NoError(t, mr.Set(consts.TokenRevokedKey+signature, "1"))

		require.Equal(t, 401, get("Bearer "+token).Code)
	})
}
