package dto

import "time"

// AuthenticateReq 先连后认证模式下的首个事件
type AuthenticateReq struct {
	Token string `json:"token"`
}

// ConversationReq join-chat / leave-chat
type ConversationReq struct {
	ConversationID uint64 `json:"conversationId" validate:"required"`
}

// SendMessageReq 发送消息，ConversationID 为空时按收发双方解析会话
type SendMessageReq struct {
	ConversationID uint64 `json:"conversationId"`
	ReceiverID     uint64 `json:"receiverId" validate:"required_without=ConversationID"`
	Content        string `json:"content" validate:"max=4000"`
}

// TypingReq 输入状态
type TypingReq struct {
	ConversationID uint64 `json:"conversationId" validate:"required"`
	IsTyping       bool   `json:"isTyping"`
}

// MarkReadReq 标记已读
type MarkReadReq struct {
	ConversationID uint64   `json:"conversationId" validate:"required"`
	MessageIDs     []string `json:"messageIds" validate:"required,min=1,max=500,dive,uuid"`
}

// MessageDTO 消息推送
type MessageDTO struct {
	ID             string     `json:"id"`
	ConversationID uint64     `json:"conversationId"`
	SenderID       uint64     `json:"senderId"`
	ReceiverID     uint64     `json:"receiverId"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReadAt         *time.Time `json:"readAt"`
}

// UserPresenceDTO user-online / user-offline
type UserPresenceDTO struct {
	UserID uint64 `json:"userId"`
}

// AuthenticatedDTO 认证成功回执
type AuthenticatedDTO struct {
	UserID    uint64 `json:"userId"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
}

// JoinedChatDTO 加入房间回执
type JoinedChatDTO struct {
	ConversationID uint64 `json:"conversationId"`
}

// TypingDTO user-typing
type TypingDTO struct {
	ConversationID uint64 `json:"conversationId"`
	UserID         uint64 `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// ReadReceiptDTO messages-read
type ReadReceiptDTO struct {
	ConversationID uint64   `json:"conversationId"`
	MessageIDs     []string `json:"messageIds"`
}

// ErrorDTO error / auth-error
type ErrorDTO struct {
	Message string `json:"message"`
}

// PushEvent 外部（REST / AI）经 Kafka 推送给在线用户的事件
type PushEvent struct {
	UserID uint64         `json:"userId" validate:"required"`
	Event  string         `json:"event" validate:"required"`
	Data   map[string]any `json:"data"`
}
