package realtime

import (
	"github.com/goccy/go-json"
)

// 入站事件
const (
	EventAuthenticate = "authenticate"
	EventJoinChat     = "join-chat"
	EventLeaveChat    = "leave-chat"
	EventSendMessage  = "send-message"
	EventTyping       = "typing"
	EventMarkRead     = "mark-read"
)

// 出站事件
const (
	EventAuthenticated       = "authenticated"
	EventUserOnline          = "user-online"
	EventUserOffline         = "user-offline"
	EventOnlineUsers         = "online-users"
	EventNewMessage          = "new-message"
	EventMessageNotification = "message-notification"
	EventMessageSent         = "message-sent"
	EventUserTyping          = "user-typing"
	EventMessagesRead        = "messages-read"
	EventJoinedChat          = "joined-chat"
	EventError               = "error"
	EventAuthError           = "auth-error"
)

// Event 出站帧 {"event": ..., "data": ...}
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

func NewEvent(name string, data any) *Event {
	return &Event{Name: name, Data: data}
}

// Envelope 入站帧，data 延迟到具体处理器解析
type Envelope struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// DecodeEnvelope 解析入站帧
func DecodeEnvelope(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Encode 序列化出站帧
func (e *Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
