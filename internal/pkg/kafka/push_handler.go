package kafka

import (
	"Courier/internal/api/dto"
	"Courier/internal/pkg/util"
	"Courier/internal/realtime"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// Pusher 在线投递出口，由 IMService 实现
type Pusher interface {
	PushToUser(ctx context.Context, userID uint64, evt *realtime.Event) bool
}

// PushHandler 消费外部（REST / AI 回复）产生的推送事件，投递给本进程内的在线用户
type PushHandler struct {
	pusher Pusher
}

func NewPushHandler(pusher Pusher) *PushHandler {
	return &PushHandler{pusher: pusher}
}

func (s *PushHandler) Setup(_ sarama.ConsumerGroupSession) error {
	return nil
}

func (s *PushHandler) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

func (s *PushHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	return pullMessageBatch(session, claim, s.handle)
}

// handle 格式错误的消息直接丢弃，不参与重试；用户离线同样丢弃
func (s *PushHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt dto.PushEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		log.WarnContext(ctx, "unmarshal push event error", "offset", msg.Offset, "err", err)
		return nil
	}
	if err := util.ValidateDTO(&evt); err != nil {
		log.WarnContext(ctx, "invalid push event", "offset", msg.Offset, "err", err)
		return nil
	}

	delivered := s.pusher.PushToUser(ctx, evt.UserID, realtime.NewEvent(evt.Event, evt.Data))
	log.DebugContext(ctx, "push event consumed", "user_id", evt.UserID, "event", evt.Event, "delivered", delivered)
	return nil
}
