package handler

import (
	"Courier/internal/api/config"
	"Courier/internal/api/dto"
	"Courier/internal/pkg/consts"
	"Courier/internal/pkg/logger"
	"Courier/internal/pkg/response"
	"Courier/internal/pkg/security"
	"Courier/internal/realtime"
	"Courier/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const defaultAuthTimeout = 10 * time.Second

type WsHandler struct {
	cfg         config.IMConfig
	authService service.AuthService
	imService   service.IMService
	upgrader    websocket.Upgrader
}

func NewWsHandler(cfg config.IMConfig, auth service.AuthService, im service.IMService) *WsHandler {
	s := &WsHandler{cfg: cfg, authService: auth, imService: im}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin 未配置白名单时放行，无 Origin 头的非浏览器客户端放行
func (s *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigin) == 0 {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigin, origin)
}

func (s *WsHandler) Connect(c *gin.Context) {
	traceID := c.GetString(logger.TraceIDKey)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	ctx := logger.WithTraceID(c.Request.Context(), traceID)
	creds := security.CredentialsFromRequest(c.Request)

	var identity *security.Identity
	if s.cfg.Admission == config.AdmissionRejectBeforeAccept {
		var err error
		identity, err = s.authService.Authenticate(ctx, creds)
		if err != nil {
			log.WarnContext(ctx, "WS 鉴权失败", "remote", c.ClientIP(), "err", err)
			response.Abort(c, http.StatusUnauthorized, err)
			return
		}
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(ctx, "WS 协议升级失败", "err", err)
		return
	}

	conn := realtime.NewConn(ws, s.cfg.OutboxSize, s.cfg.MaxMessageSize)
	conn.Start()
	s.serve(ctx, conn, creds, identity)
}

// 认证握手状态，超时与认证结果通过 CAS 互斥
const (
	admissionPending int32 = iota
	admissionAccepted
	admissionRejected
)

// serve 单连接读循环，identity 为空时先走认证握手
func (s *WsHandler) serve(ctx context.Context, conn *realtime.Conn, creds security.Credentials, identity *security.Identity) {
	var (
		session *realtime.Session
		state   atomic.Int32
	)

	if identity != nil {
		state.Store(admissionAccepted)
		session = s.imService.Connect(ctx, conn, identity)
	} else {
		timeout := time.Duration(s.cfg.AuthTimeout) * time.Second
		if timeout <= 0 {
			timeout = defaultAuthTimeout
		}
		timer := time.AfterFunc(timeout, func() {
			if state.CompareAndSwap(admissionPending, admissionRejected) {
				log.InfoContext(ctx, "WS 认证超时", "conn_id", conn.ID())
				_ = conn.Send(realtime.NewEvent(realtime.EventAuthError, dto.ErrorDTO{Message: "认证超时"}))
				conn.Close(consts.CloseAuthFailed, "authentication timeout")
			}
		})
		defer timer.Stop()
	}

	err := conn.ReadLoop(func(frame []byte) {
		if session != nil {
			s.imService.HandleFrame(ctx, session, frame)
			return
		}
		// 认证失败或超时后连接正在关闭，剩余帧全部丢弃
		if state.Load() == admissionRejected {
			return
		}
		session = s.authenticate(ctx, conn, creds, frame, &state)
	})

	if session != nil {
		s.imService.Disconnect(ctx, session)
	}
	conn.Close(websocket.CloseNormalClosure, "")
	<-conn.Done()

	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		log.DebugContext(ctx, "WS 读取异常结束", "conn_id", conn.ID(), "err", err)
	}
	log.InfoContext(ctx, "用户 WS 连接已断开", "conn_id", conn.ID())
}

// authenticate 处理认证前的帧，非 authenticate 事件不产生任何副作用
func (s *WsHandler) authenticate(ctx context.Context, conn *realtime.Conn, creds security.Credentials, frame []byte, state *atomic.Int32) *realtime.Session {
	env, err := realtime.DecodeEnvelope(frame)
	if err != nil || env.Name != realtime.EventAuthenticate {
		_ = conn.Send(realtime.NewEvent(realtime.EventAuthError, dto.ErrorDTO{Message: service.ErrNotAuthenticated.Error()}))
		return nil
	}

	var req dto.AuthenticateReq
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &req)
	}
	if req.Token != "" {
		creds.Token = req.Token
	}

	identity, err := s.authService.Authenticate(ctx, creds)
	if err != nil {
		if !state.CompareAndSwap(admissionPending, admissionRejected) {
			return nil
		}
		log.WarnContext(ctx, "WS 鉴权失败", "conn_id", conn.ID(), "err", err)
		_ = conn.Send(realtime.NewEvent(realtime.EventAuthError, dto.ErrorDTO{Message: err.Error()}))
		conn.Close(consts.CloseAuthFailed, "authentication failed")
		return nil
	}
	if !state.CompareAndSwap(admissionPending, admissionAccepted) {
		// 已超时关闭
		return nil
	}
	return s.imService.Connect(ctx, conn, identity)
}
