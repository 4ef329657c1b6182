package realtime

import (
	"Courier/internal/api/dto"
	"slices"
	"sync"
)

// RegistryHooks 在线状态变化的旁路观察点，回调在表锁外按变更顺序串行执行
type RegistryHooks struct {
	// Superseded 同一用户的新连接顶替旧连接时触发
	Superseded func(old, replacement *Session)
	// Changed 用户上线/下线后触发
	Changed func(userID uint64, online bool)
}

// Registry 在线用户表：userID -> 当前连接，同一用户只保留最后一次注册的连接
type Registry struct {
	mu       sync.RWMutex
	sessions map[uint64]*Session
	hooks    RegistryHooks
	// ticket 在 mu 内递增，通知按取号顺序发出
	ticket uint64
	notify notifySeq
}

// notifySeq 按号放行的通知队列
type notifySeq struct {
	mu      sync.Mutex
	cond    *sync.Cond
	serving uint64
}

func (q *notifySeq) wait(ticket uint64) {
	q.mu.Lock()
	for q.serving != ticket {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

func (q *notifySeq) done() {
	q.mu.Lock()
	q.serving++
	q.cond.Broadcast()
	q.mu.Unlock()
}

func NewRegistry(hooks RegistryHooks) *Registry {
	r := &Registry{
		sessions: make(map[uint64]*Session),
		hooks:    hooks,
	}
	r.notify.cond = sync.NewCond(&r.notify.mu)
	return r
}

// nextTicketLocked 调用方需持有 mu
func (r *Registry) nextTicketLocked() uint64 {
	t := r.ticket
	r.ticket++
	return t
}

// SetOnline 注册会话，向其他在线用户广播 user-online，并向新会话下发完整在线列表
func (r *Registry) SetOnline(s *Session) {
	r.mu.Lock()
	prev := r.sessions[s.UserID]
	r.sessions[s.UserID] = s
	others := r.othersLocked(s.UserID)
	online := r.idsLocked()
	ticket := r.nextTicketLocked()
	r.mu.Unlock()

	r.notify.wait(ticket)
	defer r.notify.done()

	if prev != nil && prev != s && r.hooks.Superseded != nil {
		r.hooks.Superseded(prev, s)
	}
	if r.hooks.Changed != nil {
		r.hooks.Changed(s.UserID, true)
	}

	evt := NewEvent(EventUserOnline, dto.UserPresenceDTO{UserID: s.UserID})
	for _, o := range others {
		_ = o.Send(evt)
	}
	_ = s.Send(NewEvent(EventOnlineUsers, online))
}

// SetOffline 仅当登记的仍是该会话时移除，被顶替的旧连接断开不会踢掉新连接
func (r *Registry) SetOffline(s *Session) bool {
	r.mu.Lock()
	if cur, ok := r.sessions[s.UserID]; !ok || cur != s {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s.UserID)
	others := r.othersLocked(s.UserID)
	ticket := r.nextTicketLocked()
	r.mu.Unlock()

	r.notify.wait(ticket)
	defer r.notify.done()

	if r.hooks.Changed != nil {
		r.hooks.Changed(s.UserID, false)
	}

	evt := NewEvent(EventUserOffline, dto.UserPresenceDTO{UserID: s.UserID})
	for _, o := range others {
		_ = o.Send(evt)
	}
	return true
}

// IsOnline 返回用户当前连接
func (r *Registry) IsOnline(userID uint64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[userID]
	return s, ok
}

// ListOnline 返回按 ID 升序的在线用户
func (r *Registry) ListOnline() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

// SendTo 投递给用户当前连接，用户离线或连接已关闭时返回 false
func (r *Registry) SendTo(userID uint64, evt *Event) bool {
	s, ok := r.IsOnline(userID)
	if !ok {
		return false
	}
	return s.Send(evt) == nil
}

// Sessions 当前所有会话快照
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		res = append(res, s)
	}
	return res
}

func (r *Registry) othersLocked(userID uint64) []*Session {
	res := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		if id != userID {
			res = append(res, s)
		}
	}
	return res
}

func (r *Registry) idsLocked() []uint64 {
	ids := make([]uint64, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
