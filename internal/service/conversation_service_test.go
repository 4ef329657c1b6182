package service

import (
	"Courier/internal/mocks"
	"Courier/internal/model"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestConversationService_ResolveOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject a self conversation", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockConversationRepo(ctrl)

		_, err := NewConversationService(repo).ResolveOrCreate(ctx, 5, 5)

		req.ErrorIs(err, ErrSelfConversation)
	})

	t.Run("should return the existing conversation for either ordering", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockConversationRepo(ctrl)
		existing := &model.Conversation{ID: 9, PeerKey: "3_8", UserAID: 3, UserBID: 8}
		repo.EXPECT().GetConversationByPeerKey(gomock.Any(), "3_8").Return(existing, nil).Times(2)

		svc := NewConversationService(repo)
		a, err := svc.ResolveOrCreate(ctx, 8, 3)
		req.NoError(err)
		b, err := svc.ResolveOrCreate(ctx, 3, 8)
		req.NoError(err)

		req.Equal(uint64(9), a.ID)
		req.Equal(a.ID, b.ID)
	})

	t.Run("should create with ordered participants", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockConversationRepo(ctrl)
		repo.EXPECT().GetConversationByPeerKey(gomock.Any(), "3_8").Return(nil, nil)
		repo.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, conv *model.Conversation) (*model.Conversation, error) {
				req.Equal("3_8", conv.PeerKey)
				req.Equal(uint64(3), conv.UserAID)
				req.Equal(uint64(8), conv.UserBID)
				conv.ID = 11
				return conv, nil
			})

		conv, err := NewConversationService(repo).ResolveOrCreate(ctx, 8, 3)

		req.NoError(err)
		req.Equal(uint64(11), conv.ID)
	})

	t.Run("should wrap storage failures", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockConversationRepo(ctrl)
		repo.EXPECT().GetConversationByPeerKey(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := NewConversationService(repo).ResolveOrCreate(ctx, 1, 2)

		req.ErrorIs(err, ErrPersistence)
	})

	t.Run("should coalesce concurrent calls for the same pair", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockConversationRepo(ctrl)

		release := make(chan struct{})
		var mu sync.Mutex
		var stored *model.Conversation
		repo.EXPECT().GetConversationByPeerKey(gomock.Any(), "1_2").DoAndReturn(
			func(context.Context, string) (*model.Conversation, error) {
				<-release
				mu.Lock()
				defer mu.Unlock()
				return stored, nil
			}).AnyTimes()
		repo.EXPECT().CreateConversation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, conv *model.Conversation) (*model.Conversation, error) {
				mu.Lock()
				defer mu.Unlock()
				if stored == nil {
					conv.ID = 1
					stored = conv
				}
				return stored, nil
			}).AnyTimes()

		svc := NewConversationService(repo)
		results := make(chan uint64, 10)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				a, b := uint64(1), uint64(2)
				if i%2 == 0 {
					a, b = b, a
				}
				conv, err := svc.ResolveOrCreate(ctx, a, b)
				if err == nil {
					results <- conv.ID
				}
			}(i)
		}
		close(release)
		wg.Wait()
		close(results)

		count := 0
		for id := range results {
			req.Equal(uint64(1), id)
			count++
		}
		req.Equal(10, count)
	})
}

func TestConversationService_ResolveForParticipant(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockConversationRepo(ctrl)
	repo.EXPECT().GetConversation(gomock.Any(), uint64(4)).Return(&model.Conversation{ID: 4, UserAID: 1, UserBID: 2}, nil).AnyTimes()
	repo.EXPECT().GetConversation(gomock.Any(), uint64(5)).Return(nil, nil).AnyTimes()
	svc := NewConversationService(repo)

	t.Run("should accept either participant", func(t *testing.T) {
		req := require.New(t)
		for _, user := range []uint64{1, 2} {
			conv, err := svc.ResolveForParticipant(ctx, 4, user)
			req.NoError(err)
			req.Equal(uint64(4), conv.ID)
		}
	})

	t.Run("should reject outsiders", func(t *testing.T) {
		_, err := svc.ResolveForParticipant(ctx, 4, 3)
		require.ErrorIs(t, err, UnauthorizedError)
	})

	t.Run("should report missing conversations", func(t *testing.T) {
		req := require.New(t)
		_, err := svc.ResolveForParticipant(ctx, 5, 1)
		req.ErrorIs(err, ErrConversationNotFound)
		_, err = svc.ResolveByID(ctx, 0)
		req.ErrorIs(err, ErrParamInvalid)
	})
}
