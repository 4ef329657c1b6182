package service

import (
	"Courier/internal/api/dto"
	"Courier/internal/model"
	"Courier/internal/pkg/security"
	"Courier/internal/realtime"
	"Courier/internal/realtime/realtimetest"
	"Courier/internal/repository"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	alice uint64 = 1
	bob   uint64 = 2
	carol uint64 = 3
)

type harness struct {
	svc      IMService
	db       *gorm.DB
	registry *realtime.Registry
	rooms    *realtime.Rooms
	convs    ConversationService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Conversation{}, &model.Message{}))
	for _, u := range []model.User{
		{ID: alice, Nickname: "alice"},
		{ID: bob, Nickname: "bob"},
		{ID: carol, Nickname: "carol"},
	} {
		require.NoError(t, db.Create(&u).Error)
	}
	return db
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := newTestDB(t)
	registry := realtime.NewRegistry(realtime.RegistryHooks{Superseded: SupersededHandler(true)})
	rooms := realtime.NewRooms()
	convs := NewConversationService(repository.NewConversationRepo(db))
	svc := NewIMService(registry, rooms, convs, repository.NewMessageRepo(db), repository.NewUserRepo(db))
	return &harness{svc: svc, db: db, registry: registry, rooms: rooms, convs: convs}
}

func (h *harness) connect(userID uint64) (*realtime.Session, *realtimetest.Peer) {
	peer := realtimetest.NewPeer()
	s := h.svc.Connect(context.Background(), peer, &security.Identity{UserID: userID})
	return s, peer
}

func (h *harness) countMessages(t *testing.T) int64 {
	var n int64
	require.NoError(t, h.db.Model(&model.Message{}).Count(&n).Error)
	return n
}

func frame(t *testing.T, name string, data any) []byte {
	t.Helper()
	b, err := realtime.NewEvent(name, data).Encode()
	require.NoError(t, err)
	return b
}

func errorMessages(p *realtimetest.Peer) []string {
	var res []string
	for _, e := range p.Named(realtime.EventError) {
		res = append(res, e.Data.(dto.ErrorDTO).Message)
	}
	return res
}
