package service

import (
	"Courier/internal/pkg/consts"
	"Courier/internal/pkg/redis"
	"Courier/internal/realtime"
	"context"
	log "log/slog"
	"strconv"
	"time"
)

const mirrorTimeout = 2 * time.Second

// PresenceMirror 将在线用户同步到 Redis 集合，供其他进程查询
type PresenceMirror struct {
	key string
}

func NewPresenceMirror() *PresenceMirror {
	return &PresenceMirror{key: consts.IMOnlineUsersKey}
}

// Changed 作为 RegistryHooks.Changed 使用，失败只记日志，由定时任务校准
func (m *PresenceMirror) Changed(userID uint64, online bool) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	member := strconv.FormatUint(userID, 10)
	var err error
	if online {
		err = redis.SAdd(ctx, m.key, member)
	} else {
		err = redis.SRem(ctx, m.key, member)
	}
	if err != nil {
		log.Warn("presence mirror update failed", "user_id", userID, "online", online, "err", err)
	}
}

// Sync 用内存中的在线表整体覆盖 Redis 集合
func (m *PresenceMirror) Sync(ctx context.Context, online []uint64) error {
	members := make([]string, len(online))
	for i, id := range online {
		members[i] = strconv.FormatUint(id, 10)
	}
	return redis.ReplaceSet(ctx, m.key, members)
}

// Clear 进程退出时移除镜像
func (m *PresenceMirror) Clear(ctx context.Context) error {
	return redis.DeleteKey(ctx, m.key)
}

// SupersededHandler 同一用户新连接顶替旧连接时的处理，closeOld 为真时主动关闭旧连接
func SupersededHandler(closeOld bool) func(old, replacement *realtime.Session) {
	return func(old, replacement *realtime.Session) {
		log.Info("连接被顶替", "user_id", old.UserID, "old_conn", old.ID(), "new_conn", replacement.ID())
		if closeOld {
			old.Close(consts.CloseSuperseded, "superseded by a newer connection")
		}
	}
}
