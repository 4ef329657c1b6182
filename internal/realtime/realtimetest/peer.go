// Package realtimetest 提供记录出站事件的内存 Peer，供各层测试使用
package realtimetest

import (
	"Courier/internal/realtime"
	"sync"

	"github.com/google/uuid"
)

type Peer struct {
	id string

	mu          sync.Mutex
	events      []*realtime.Event
	closed      bool
	CloseCode   int
	CloseReason string
}

func NewPeer() *Peer {
	return &Peer{id: uuid.NewString()}
}

func (p *Peer) ID() string { return p.id }

func (p *Peer) Send(evt *realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return realtime.ErrPeerClosed
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *Peer) Close(code int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.CloseCode = code
	p.CloseReason = reason
}

func (p *Peer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Events 返回已收到事件的副本
func (p *Peer) Events() []*realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*realtime.Event(nil), p.events...)
}

// Named 过滤出指定名称的事件
func (p *Peer) Named(name string) []*realtime.Event {
	var res []*realtime.Event
	for _, e := range p.Events() {
		if e.Name == name {
			res = append(res, e)
		}
	}
	return res
}

// Reset 清空已记录事件
func (p *Peer) Reset() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}
