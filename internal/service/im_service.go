package service

import (
	"Courier/internal/api/dto"
	"Courier/internal/model"
	"Courier/internal/pkg/security"
	"Courier/internal/pkg/util"
	"Courier/internal/realtime"
	"Courier/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// IMService 即时通讯服务：在线状态、房间、消息投递与已读回执
type IMService interface {
	Connect(ctx context.Context, peer realtime.Peer, identity *security.Identity) *realtime.Session
	Disconnect(ctx context.Context, s *realtime.Session)
	// HandleFrame 处理已认证连接上的一帧，错误以 error 事件回给该连接
	HandleFrame(ctx context.Context, s *realtime.Session, frame []byte)

	JoinChat(ctx context.Context, s *realtime.Session, convID uint64) error
	LeaveChat(ctx context.Context, s *realtime.Session, convID uint64)
	SendMessage(ctx context.Context, s *realtime.Session, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	Typing(ctx context.Context, s *realtime.Session, req *dto.TypingReq) error
	MarkRead(ctx context.Context, userID, convID uint64, messageIDs []string) (int, error)

	PushToUser(ctx context.Context, userID uint64, evt *realtime.Event) bool
	ListOnline() []uint64
	Shutdown()
}

type IMServiceImpl struct {
	registry    *realtime.Registry
	rooms       *realtime.Rooms
	convService ConversationService
	messageRepo repository.MessageRepo
	userRepo    repository.UserRepo
	locks       *convLocks
	now         func() time.Time
}

func NewIMService(
	registry *realtime.Registry,
	rooms *realtime.Rooms,
	convService ConversationService,
	messageRepo repository.MessageRepo,
	userRepo repository.UserRepo,
) IMService {
	return &IMServiceImpl{
		registry:    registry,
		rooms:       rooms,
		convService: convService,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		locks:       newConvLocks(),
		now:         time.Now,
	}
}

// Connect 认证通过后登记在线并回执
func (s *IMServiceImpl) Connect(ctx context.Context, peer realtime.Peer, identity *security.Identity) *realtime.Session {
	session := realtime.NewSession(peer, identity)
	_ = session.Send(realtime.NewEvent(realtime.EventAuthenticated, dto.AuthenticatedDTO{
		UserID:    identity.UserID,
		Nickname:  identity.Nickname,
		AvatarURL: identity.AvatarURL,
	}))
	s.registry.SetOnline(session)
	log.InfoContext(ctx, "用户上线", "user_id", identity.UserID, "conn_id", peer.ID())
	return session
}

// Disconnect 清理房间并下线，被顶替的旧连接不会影响新连接
func (s *IMServiceImpl) Disconnect(ctx context.Context, session *realtime.Session) {
	s.rooms.Drop(session)
	if s.registry.SetOffline(session) {
		log.InfoContext(ctx, "用户下线", "user_id", session.UserID, "conn_id", session.ID())
	}
}

func (s *IMServiceImpl) HandleFrame(ctx context.Context, session *realtime.Session, frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "handle frame panic", "user_id", session.UserID, "panic", r)
			s.sendError(session, UnExpectedError)
		}
	}()

	env, err := realtime.DecodeEnvelope(frame)
	if err != nil {
		s.sendError(session, ErrParamInvalid)
		return
	}

	switch env.Name {
	case realtime.EventJoinChat:
		var req dto.ConversationReq
		if err = s.bind(env.Data, &req); err == nil {
			err = s.JoinChat(ctx, session, req.ConversationID)
		}
	case realtime.EventLeaveChat:
		var req dto.ConversationReq
		if err = s.bind(env.Data, &req); err == nil {
			s.LeaveChat(ctx, session, req.ConversationID)
		}
	case realtime.EventSendMessage:
		var req dto.SendMessageReq
		if err = s.bind(env.Data, &req); err == nil {
			_, err = s.SendMessage(ctx, session, &req)
		}
	case realtime.EventTyping:
		var req dto.TypingReq
		if err = s.bind(env.Data, &req); err == nil {
			err = s.Typing(ctx, session, &req)
		}
	case realtime.EventMarkRead:
		var req dto.MarkReadReq
		if err = s.bind(env.Data, &req); err == nil {
			_, err = s.MarkRead(ctx, session.UserID, req.ConversationID, req.MessageIDs)
		}
	case realtime.EventAuthenticate:
		// 已认证连接重复认证，忽略
		return
	default:
		err = ErrUnknownEvent
	}

	if err != nil {
		s.sendError(session, err)
	}
}

// JoinChat 仅会话参与者可加入房间
func (s *IMServiceImpl) JoinChat(ctx context.Context, session *realtime.Session, convID uint64) error {
	conv, err := s.convService.ResolveForParticipant(ctx, convID, session.UserID)
	if err != nil {
		log.WarnContext(ctx, "join chat rejected", "user_id", session.UserID, "conversation_id", convID, "err", err)
		return err
	}
	s.rooms.Join(conv.ID, session)
	_ = session.Send(realtime.NewEvent(realtime.EventJoinedChat, dto.JoinedChatDTO{ConversationID: conv.ID}))
	return nil
}

func (s *IMServiceImpl) LeaveChat(_ context.Context, session *realtime.Session, convID uint64) {
	s.rooms.Leave(convID, session)
}

// SendMessage 校验、解析会话、落库、更新会话时间后广播，同一会话内串行
func (s *IMServiceImpl) SendMessage(ctx context.Context, session *realtime.Session, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	conv, receiverID, err := s.resolveTarget(ctx, session.UserID, req)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       session.UserID,
		ReceiverID:     receiverID,
		Content:        content,
		CreatedAt:      s.now(),
	}

	// 连接断开不应中断落库
	storeCtx := context.WithoutCancel(ctx)

	unlock := s.locks.Lock(conv.ID)
	defer unlock()

	if err = s.messageRepo.CreateMessage(storeCtx, msg); err != nil {
		log.ErrorContext(ctx, "create message failed", "conversation_id", conv.ID, "sender_id", session.UserID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err = s.convService.Touch(storeCtx, conv.ID, msg.CreatedAt); err != nil {
		log.WarnContext(ctx, "touch conversation failed", "conversation_id", conv.ID, "err", err)
	}

	out := toMessageDTO(msg)
	s.rooms.Broadcast(conv.ID, realtime.NewEvent(realtime.EventNewMessage, out), "")
	s.registry.SendTo(receiverID, realtime.NewEvent(realtime.EventMessageNotification, out))
	_ = session.Send(realtime.NewEvent(realtime.EventMessageSent, out))
	return out, nil
}

func (s *IMServiceImpl) resolveTarget(ctx context.Context, senderID uint64, req *dto.SendMessageReq) (*model.Conversation, uint64, error) {
	if req.ConversationID == 0 {
		if req.ReceiverID == 0 || req.ReceiverID == senderID {
			return nil, 0, ErrTargetUserInvalid
		}
		receiver, err := s.userRepo.GetUserById(ctx, req.ReceiverID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if receiver == nil || receiver.IsBan {
			return nil, 0, ErrTargetUserInvalid
		}
		conv, err := s.convService.ResolveOrCreate(ctx, senderID, req.ReceiverID)
		if err != nil {
			return nil, 0, err
		}
		return conv, req.ReceiverID, nil
	}

	conv, err := s.convService.ResolveForParticipant(ctx, req.ConversationID, senderID)
	if err != nil {
		return nil, 0, err
	}
	peerID, _ := conv.PeerOf(senderID)
	if req.ReceiverID != 0 && req.ReceiverID != peerID {
		return nil, 0, ErrTargetUserInvalid
	}
	return conv, peerID, nil
}

// Typing 输入状态只转发给房间内的其他连接
func (s *IMServiceImpl) Typing(_ context.Context, session *realtime.Session, req *dto.TypingReq) error {
	if !s.rooms.IsMember(req.ConversationID, session) {
		return UnauthorizedError
	}
	s.rooms.Broadcast(req.ConversationID, realtime.NewEvent(realtime.EventUserTyping, dto.TypingDTO{
		ConversationID: req.ConversationID,
		UserID:         session.UserID,
		IsTyping:       req.IsTyping,
	}), session.ID())
	return nil
}

// MarkRead 标记 userID 作为接收者的未读消息，非参与者静默返回 0
func (s *IMServiceImpl) MarkRead(ctx context.Context, userID, convID uint64, messageIDs []string) (int, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	conv, err := s.convService.ResolveForParticipant(ctx, convID, userID)
	if err != nil {
		if errors.Is(err, UnauthorizedError) || errors.Is(err, ErrConversationNotFound) {
			return 0, nil
		}
		return 0, err
	}

	updated, err := s.messageRepo.MarkMessagesRead(ctx, conv.ID, userID, messageIDs, s.now())
	if err != nil {
		log.ErrorContext(ctx, "mark messages read failed", "conversation_id", conv.ID, "user_id", userID, "err", err)
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if len(updated) == 0 {
		return 0, nil
	}

	peerID, _ := conv.PeerOf(userID)
	s.registry.SendTo(peerID, realtime.NewEvent(realtime.EventMessagesRead, dto.ReadReceiptDTO{
		ConversationID: conv.ID,
		MessageIDs:     updated,
	}))
	return len(updated), nil
}

// PushToUser 向在线用户直接投递，离线时返回 false
func (s *IMServiceImpl) PushToUser(ctx context.Context, userID uint64, evt *realtime.Event) bool {
	ok := s.registry.SendTo(userID, evt)
	if !ok {
		log.DebugContext(ctx, "push dropped, user offline", "user_id", userID, "event", evt.Name)
	}
	return ok
}

func (s *IMServiceImpl) ListOnline() []uint64 {
	return s.registry.ListOnline()
}

// Shutdown 关闭全部在线连接
func (s *IMServiceImpl) Shutdown() {
	sessions := s.registry.Sessions()
	for _, session := range sessions {
		session.Close(1001, "server shutdown")
	}
	log.Info("IM 连接已全部关闭", "count", len(sessions))
}

func (s *IMServiceImpl) bind(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return ErrParamInvalid
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	if err := util.ValidateDTO(out); err != nil {
		return fmt.Errorf("%w: %v", ErrParamInvalid, err)
	}
	return nil
}

func (s *IMServiceImpl) sendError(session *realtime.Session, err error) {
	_, target := StatusOf(err)
	_ = session.Send(realtime.NewEvent(realtime.EventError, dto.ErrorDTO{Message: target.Error()}))
}

func toMessageDTO(msg *model.Message) *dto.MessageDTO {
	out := &dto.MessageDTO{}
	_ = copier.Copy(out, msg)
	return out
}
