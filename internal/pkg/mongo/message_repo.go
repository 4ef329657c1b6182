package mongo

import (
	"Courier/internal/model"
	"Courier/internal/repository"
	"context"
	"time"

	"github.com/jinzhu/copier"
	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type messageRepoImpl struct {
	col *mongo.Collection
}

// NewMessageRepo 基于 MongoDB 的 repository.MessageRepo 实现
func NewMessageRepo(db *mongo.Database) repository.MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("message"),
	}
}

// EnsureIndexes 创建按会话、接收者查询所需的索引
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("message").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "read_at", Value: 1}}},
	})
	return err
}

// CreateMessage 将消息存入 MongoDB
func (s *messageRepoImpl) CreateMessage(ctx context.Context, msg *model.Message) error {
	var doc Message
	if err := copier.Copy(&doc, msg); err != nil {
		return err
	}
	_, err := s.col.InsertOne(ctx, &doc)
	return pkgerrors.Wrap(err, "insert message")
}

// MarkMessagesRead 先查出候选 ID，再逐条以 read_at 为 null 条件更新，只返回本次真正改写的 ID
func (s *messageRepoImpl) MarkMessagesRead(ctx context.Context, convID, receiverID uint64, ids []string, at time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	filter := bson.M{
		"_id":             bson.M{"$in": ids},
		"conversation_id": convID,
		"receiver_id":     receiverID,
		"read_at":         nil,
	}
	findOptions := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "find unread messages")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []Message
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, pkgerrors.Wrap(err, "decode unread messages")
	}

	var updated []string
	for _, d := range docs {
		res, err := s.col.UpdateOne(ctx,
			bson.M{"_id": d.ID, "read_at": nil},
			bson.M{"$set": bson.M{"read_at": at}},
		)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "update read_at")
		}
		// 并发标记时只有一方能匹配到未读
		if res.ModifiedCount == 1 {
			updated = append(updated, d.ID)
		}
	}
	return updated, nil
}
