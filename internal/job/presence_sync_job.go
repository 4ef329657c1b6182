package job

import (
	"Courier/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// OnlineLister 提供本进程在线用户列表
type OnlineLister interface {
	ListOnline() []uint64
}

// PresenceSyncer 在线用户镜像
type PresenceSyncer interface {
	Sync(ctx context.Context, online []uint64) error
}

// PresenceSyncJob 定时用内存在线表校准 Redis 镜像，修正 SAdd/SRem 丢失造成的偏差
type PresenceSyncJob struct {
	lister OnlineLister
	mirror PresenceSyncer
}

func NewPresenceSyncJob(lister OnlineLister, mirror PresenceSyncer) *PresenceSyncJob {
	return &PresenceSyncJob{lister: lister, mirror: mirror}
}

func (s *PresenceSyncJob) Run() {
	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), "job-"+uuid.NewString()), 10*time.Second)
	defer cancel()

	online := s.lister.ListOnline()
	if err := s.mirror.Sync(ctx, online); err != nil {
		log.ErrorContext(ctx, "presence sync error", "err", err)
		return
	}
	log.DebugContext(ctx, "presence synced", "online", len(online))
}
