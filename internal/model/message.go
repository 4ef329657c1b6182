package model

import "time"

// Message 消息明细，ReadAt 为空表示未读
type Message struct {
	ID             string     `gorm:"primaryKey;type:char(36)" json:"id"`
	ConversationID uint64     `gorm:"not null;index:idx_conv_created" json:"conversationId"`
	SenderID       uint64     `gorm:"not null" json:"senderId"`
	ReceiverID     uint64     `gorm:"not null;index" json:"receiverId"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time  `gorm:"index:idx_conv_created" json:"createdAt"`
	ReadAt         *time.Time `json:"readAt"`
}

func (Message) TableName() string { return "messages" }
