package realtime

import (
	"sync"
)

// Rooms 会话房间成员表，按连接维度维护，连接关闭时整体清除
type Rooms struct {
	mu          sync.RWMutex
	rooms       map[uint64]map[string]*Session // conversationID -> connID -> session
	memberships map[string]map[uint64]struct{} // connID -> conversationIDs
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:       make(map[uint64]map[string]*Session),
		memberships: make(map[string]map[uint64]struct{}),
	}
}

// Join 加入房间，重复加入无副作用
func (r *Rooms) Join(convID uint64, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[convID]
	if room == nil {
		room = make(map[string]*Session)
		r.rooms[convID] = room
	}
	room[s.ID()] = s

	joined := r.memberships[s.ID()]
	if joined == nil {
		joined = make(map[uint64]struct{})
		r.memberships[s.ID()] = joined
	}
	joined[convID] = struct{}{}
}

// Leave 离开房间，非成员时为空操作
func (r *Rooms) Leave(convID uint64, s *Session) {
	r.mu.Lock()
	r.leaveLocked(convID, s.ID())
	r.mu.Unlock()
}

// Drop 移除连接的全部成员关系，返回其曾加入的房间
func (r *Rooms) Drop(s *Session) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.memberships[s.ID()]
	left := make([]uint64, 0, len(joined))
	for convID := range joined {
		r.leaveLocked(convID, s.ID())
		left = append(left, convID)
	}
	delete(r.memberships, s.ID())
	return left
}

// IsMember 判断连接是否在房间内
func (r *Rooms) IsMember(convID uint64, s *Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[convID][s.ID()]
	return ok
}

// Members 房间成员快照
func (r *Rooms) Members(convID uint64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[convID]
	res := make([]*Session, 0, len(room))
	for _, s := range room {
		res = append(res, s)
	}
	return res
}

// Broadcast 向房间成员投递，excludeConnID 非空时跳过该连接；返回成功入队数
func (r *Rooms) Broadcast(convID uint64, evt *Event, excludeConnID string) int {
	delivered := 0
	for _, s := range r.Members(convID) {
		if excludeConnID != "" && s.ID() == excludeConnID {
			continue
		}
		if err := s.Send(evt); err == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Rooms) leaveLocked(convID uint64, connID string) {
	if room, ok := r.rooms[convID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, convID)
		}
	}
	if joined, ok := r.memberships[connID]; ok {
		delete(joined, convID)
		if len(joined) == 0 {
			delete(r.memberships, connID)
		}
	}
}
