package realtime

import (
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Conn 基于 gorilla/websocket 的 Peer 实现。
// 所有写操作由 writePump 串行完成，Send 只入队，保证单连接内的投递顺序。
type Conn struct {
	id   string
	ws   *websocket.Conn
	send chan *Event

	once        sync.Once
	quit        chan struct{}
	done        chan struct{}
	closeCode   int
	closeReason string
}

func NewConn(ws *websocket.Conn, outboxSize int, maxMessageSize int64) *Conn {
	if outboxSize <= 0 {
		outboxSize = 256
	}
	if maxMessageSize > 0 {
		ws.SetReadLimit(maxMessageSize)
	}
	return &Conn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan *Event, outboxSize),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Start 启动写循环，每个连接只能调用一次
func (c *Conn) Start() {
	go c.writePump()
}

// Send 入队一个事件；连接已关闭时静默失败，缓冲区满则按慢消费者断开
func (c *Conn) Send(evt *Event) error {
	select {
	case <-c.quit:
		return ErrPeerClosed
	default:
	}

	select {
	case c.send <- evt:
		return nil
	default:
		c.Close(websocket.ClosePolicyViolation, "slow consumer")
		return ErrOutboxFull
	}
}

// Close 请求关闭：已入队的事件先写出，再发送关闭帧
func (c *Conn) Close(code int, reason string) {
	c.once.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.quit)
	})
}

// Done 在底层连接真正关闭后关闭
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// ReadLoop 阻塞读取文本帧直到连接断开
func (c *Conn) ReadLoop(handle func(frame []byte)) error {
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(frame)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		close(c.done)
	}()

	for {
		select {
		case evt := <-c.send:
			if err := c.write(evt); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}
		case <-c.quit:
			c.drain()
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(c.closeCode, c.closeReason),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *Conn) drain() {
	for {
		select {
		case evt := <-c.send:
			if err := c.write(evt); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(evt *Event) error {
	payload, err := evt.Encode()
	if err != nil {
		// 单条编码失败不影响连接
		log.Warn("WS 事件编码失败", "event", evt.Name, "conn", c.id, "err", err)
		return nil
	}
	if err = c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}
