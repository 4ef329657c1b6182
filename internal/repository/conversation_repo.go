package repository

import (
	"Courier/internal/model"
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

//go:generate go run go.uber.org/mock/mockgen -source=conversation_repo.go -destination=../mocks/mock_conversation_repo.go -package=mocks

type ConversationRepo interface {
	GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error)
	GetConversationByPeerKey(ctx context.Context, peerKey string) (*model.Conversation, error)
	CreateConversation(ctx context.Context, conv *model.Conversation) (*model.Conversation, error)
	TouchConversation(ctx context.Context, convID uint64, at time.Time) error
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// GetConversation 根据会话 ID 获取会话，不存在时返回 nil, nil
func (s *conversationRepoImpl) GetConversation(ctx context.Context, convID uint64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, convID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get conversation")
	}
	return &conv, nil
}

// GetConversationByPeerKey 根据会话标识获取会话，不存在时返回 nil, nil
func (s *conversationRepoImpl) GetConversationByPeerKey(ctx context.Context, peerKey string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).Where("peer_key = ?", peerKey).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get conversation by peer key")
	}
	return &conv, nil
}

// CreateConversation 创建会话；peer_key 唯一索引冲突时回查已存在的会话
func (s *conversationRepoImpl) CreateConversation(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	err := s.db.WithContext(ctx).Create(conv).Error
	if err == nil {
		return conv, nil
	}

	// 并发创建时另一方已写入，按 peer_key 取回
	existing, getErr := s.GetConversationByPeerKey(ctx, conv.PeerKey)
	if getErr == nil && existing != nil {
		return existing, nil
	}
	return nil, pkgerrors.Wrap(err, "create conversation")
}

// TouchConversation 刷新会话最后活跃时间
func (s *conversationRepoImpl) TouchConversation(ctx context.Context, convID uint64, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", convID).
		Update("last_message_at", at).Error
	return pkgerrors.Wrap(err, "touch conversation")
}
