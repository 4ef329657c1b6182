package mongo

import (
	"time"
)

// Message MongoDB 消息明细模型
type Message struct {
	ID             string     `bson:"_id"`             // uuid，由服务端生成
	ConversationID uint64     `bson:"conversation_id"` // 关联 MySQL 的会话 ID
	SenderID       uint64     `bson:"sender_id"`
	ReceiverID     uint64     `bson:"receiver_id"`
	Content        string     `bson:"content"`
	CreatedAt      time.Time  `bson:"created_at"`
	ReadAt         *time.Time `bson:"read_at"` // null 表示未读
}
