package mongo

import (
	"Courier/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const messageNS = "courier.message"

func updated(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestMessageRepo_MarkMessagesRead(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("should only query unread messages addressed to the caller", func(mt *mtest.T) {
		req := require.New(mt)
		repo := NewMessageRepo(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, messageNS, mtest.FirstBatch, bson.D{{Key: "_id", Value: "m1"}}),
			updated(1),
		)

		ids, err := repo.MarkMessagesRead(ctx, 1, 20, []string{"m1", "own"}, time.Now())
		req.NoError(err)
		req.Equal([]string{"m1"}, ids)

		find := mt.GetStartedEvent()
		req.Equal("find", find.CommandName)
		req.Equal(int64(20), find.Command.Lookup("filter", "receiver_id").AsInt64())
		req.Equal(int64(1), find.Command.Lookup("filter", "conversation_id").AsInt64())
		req.Equal(bsontype.Null, find.Command.Lookup("filter", "read_at").Type)
	})

	mt.Run("should report only ids whose update matched", func(mt *mtest.T) {
		req := require.New(mt)
		repo := NewMessageRepo(mt.DB)

		// Given m2 was marked by a concurrent caller between the query and the update
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, messageNS, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "m1"}},
				bson.D{{Key: "_id", Value: "m2"}},
			),
			updated(1),
			updated(0),
		)

		ids, err := repo.MarkMessagesRead(ctx, 1, 20, []string{"m1", "m2"}, time.Now())

		// Then only m1 is reported
		req.NoError(err)
		req.Equal([]string{"m1"}, ids)
	})

	mt.Run("should be idempotent once everything is read", func(mt *mtest.T) {
		req := require.New(mt)
		repo := NewMessageRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, messageNS, mtest.FirstBatch))

		ids, err := repo.MarkMessagesRead(ctx, 1, 20, []string{"m1"}, time.Now())
		req.NoError(err)
		req.Empty(ids)

		req.Equal("find", mt.GetStartedEvent().CommandName)
		req.Nil(mt.GetStartedEvent())
	})

	mt.Run("should skip the round trip for an empty id list", func(mt *mtest.T) {
		req := require.New(mt)
		repo := NewMessageRepo(mt.DB)

		ids, err := repo.MarkMessagesRead(ctx, 1, 20, nil, time.Now())
		req.NoError(err)
		req.Empty(ids)
		req.Nil(mt.GetStartedEvent())
	})

	mt.Run("should surface storage errors", func(mt *mtest.T) {
		req := require.New(mt)
		repo := NewMessageRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Message: "interrupted"}))

		_, err := repo.MarkMessagesRead(ctx, 1, 20, []string{"m1"}, time.Now())
		req.Error(err)
	})

	mt.Run("should insert the message document", func(mt *mtest.T) {
		req := require.New(mt)
		repo := NewMessageRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.CreateMessage(ctx, &model.Message{
			ID: "m1", ConversationID: 1, SenderID: 10, ReceiverID: 20, Content: "hello", CreatedAt: time.Now(),
		})
		req.NoError(err)

		req.Equal("insert", mt.GetStartedEvent().CommandName)
	})
}
