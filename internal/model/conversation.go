package model

import (
	"fmt"
	"time"
)

// Conversation 单聊会话主表，同一无序用户对至多一条记录
type Conversation struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PeerKey       string    `gorm:"uniqueIndex;type:varchar(64);not null" json:"peerKey"` // min_max
	UserAID       uint64    `gorm:"not null;index" json:"userAId"`
	UserBID       uint64    `gorm:"not null;index" json:"userBId"`
	LastMessageAt time.Time `gorm:"index" json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Conversation) TableName() string { return "conversations" }

// PeerKey 生成无序用户对的唯一标识
func PeerKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

// HasParticipant 判断用户是否为会话参与者
func (c *Conversation) HasParticipant(userID uint64) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// PeerOf 返回会话中另一方的 ID，userID 不是参与者时返回 false
func (c *Conversation) PeerOf(userID uint64) (uint64, bool) {
	switch userID {
	case c.UserAID:
		return c.UserBID, true
	case c.UserBID:
		return c.UserAID, true
	}
	return 0, false
}
