package repository

import (
	"Courier/internal/model"
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate go run go.uber.org/mock/mockgen -source=message_repo.go -destination=../mocks/mock_message_repo.go -package=mocks

// MessageRepo 消息存储，MySQL 与 MongoDB 两种实现共用
type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *model.Message) error
	// MarkMessagesRead 仅更新接收者为 receiverID 且尚未读的消息，返回实际更新的 ID
	MarkMessagesRead(ctx context.Context, convID, receiverID uint64, ids []string, at time.Time) ([]string, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

func (s *messageRepoImpl) CreateMessage(ctx context.Context, msg *model.Message) error {
	return pkgerrors.Wrap(s.db.WithContext(ctx).Create(msg).Error, "create message")
}

func (s *messageRepoImpl) MarkMessagesRead(ctx context.Context, convID, receiverID uint64, ids []string, at time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var updated []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := unreadForUpdate(tx, convID, receiverID, ids).Pluck("id", &updated).Error; err != nil {
			return err
		}
		if len(updated) == 0 {
			return nil
		}
		// read_at IS NULL 再次约束，保证重复调用不覆盖首次已读时间
		return tx.Model(&model.Message{}).
			Where("id IN ? AND read_at IS NULL", updated).
			Update("read_at", at).Error
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "mark messages read")
	}
	return updated, nil
}

// unreadForUpdate 锁定待标记的行，并发标记时后到者读到的是已提交的 read_at
func unreadForUpdate(tx *gorm.DB, convID, receiverID uint64, ids []string) *gorm.DB {
	return tx.Model(&model.Message{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND conversation_id = ? AND receiver_id = ? AND read_at IS NULL", ids, convID, receiverID).
		Order("created_at ASC")
}
