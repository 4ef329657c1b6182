package service

import (
	"Courier/internal/model"
	"Courier/internal/repository"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// ConversationService 单聊会话解析：同一无序用户对至多一个会话
type ConversationService interface {
	ResolveOrCreate(ctx context.Context, userA, userB uint64) (*model.Conversation, error)
	ResolveByID(ctx context.Context, convID uint64) (*model.Conversation, error)
	// ResolveForParticipant 获取会话并校验 userID 是参与者
	ResolveForParticipant(ctx context.Context, convID, userID uint64) (*model.Conversation, error)
	Touch(ctx context.Context, convID uint64, at time.Time) error
}

type ConversationServiceImpl struct {
	convRepo repository.ConversationRepo
	group    singleflight.Group
}

func NewConversationService(convRepo repository.ConversationRepo) ConversationService {
	return &ConversationServiceImpl{convRepo: convRepo}
}

// ResolveOrCreate 进程内按 PeerKey 合并并发请求，跨进程由唯一索引兜底
func (s *ConversationServiceImpl) ResolveOrCreate(ctx context.Context, userA, userB uint64) (*model.Conversation, error) {
	if userA == 0 || userB == 0 {
		return nil, ErrParamInvalid
	}
	if userA == userB {
		return nil, ErrSelfConversation
	}

	peerKey := model.PeerKey(userA, userB)
	v, err, _ := s.group.Do(peerKey, func() (interface{}, error) {
		conv, err := s.convRepo.GetConversationByPeerKey(ctx, peerKey)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			return conv, nil
		}

		low, high := userA, userB
		if low > high {
			low, high = high, low
		}
		return s.convRepo.CreateConversation(ctx, &model.Conversation{
			PeerKey:       peerKey,
			UserAID:       low,
			UserBID:       high,
			LastMessageAt: time.Now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return v.(*model.Conversation), nil
}

func (s *ConversationServiceImpl) ResolveByID(ctx context.Context, convID uint64) (*model.Conversation, error) {
	if convID == 0 {
		return nil, ErrParamInvalid
	}
	conv, err := s.convRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *ConversationServiceImpl) ResolveForParticipant(ctx context.Context, convID, userID uint64) (*model.Conversation, error) {
	conv, err := s.ResolveByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, UnauthorizedError
	}
	return conv, nil
}

func (s *ConversationServiceImpl) Touch(ctx context.Context, convID uint64, at time.Time) error {
	return s.convRepo.TouchConversation(ctx, convID, at)
}
