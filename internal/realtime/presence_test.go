package realtime_test

import (
	"Courier/internal/api/dto"
	"Courier/internal/pkg/security"
	"Courier/internal/realtime"
	"Courier/internal/realtime/realtimetest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newSession(userID uint64) (*realtime.Session, *realtimetest.Peer) {
	peer := realtimetest.NewPeer()
	return realtime.NewSession(peer, &security.Identity{UserID: userID}), peer
}

func TestRegistry_SetOnline_NotifiesOthersAndSendsSnapshot(t *testing.T) {
	req := require.New(t)
	registry := realtime.NewRegistry(realtime.RegistryHooks{})

	// Given alice is online
	alice, alicePeer := newSession(1)
	registry.SetOnline(alice)
	alicePeer.Reset()

	// When bob connects
	bob, bobPeer := newSession(2)
	registry.SetOnline(bob)

	// Then alice is told bob is online
	online := alicePeer.Named(realtime.EventUserOnline)
	req.Len(online, 1)
	req.Equal(dto.UserPresenceDTO{UserID: 2}, online[0].Data)

	// And bob receives the full online set
	snapshot := bobPeer.Named(realtime.EventOnlineUsers)
	req.Len(snapshot, 1)
	req.Equal([]uint64{1, 2}, snapshot[0].Data)
	req.Empty(bobPeer.Named(realtime.EventUserOnline))
}

func TestRegistry_SetOnline_LastConnectionWins(t *testing.T) {
	req := require.New(t)
	var superseded []*realtime.Session
	registry := realtime.NewRegistry(realtime.RegistryHooks{
		Superseded: func(old, _ *realtime.Session) { superseded = append(superseded, old) },
	})

	first, _ := newSession(1)
	second, _ := newSession(1)
	registry.SetOnline(first)
	registry.SetOnline(second)

	current, ok := registry.IsOnline(1)
	req.True(ok)
	req.Same(second, current)
	req.Equal([]*realtime.Session{first}, superseded)
	req.Equal([]uint64{1}, registry.ListOnline())

	// The superseded connection's disconnect must not evict its replacement
	req.False(registry.SetOffline(first))
	_, ok = registry.IsOnline(1)
	req.True(ok)
}

func TestRegistry_SetOffline_NotifiesRemaining(t *testing.T) {
	req := require.New(t)
	var changes []bool
	registry := realtime.NewRegistry(realtime.RegistryHooks{
		Changed: func(_ uint64, online bool) { changes = append(changes, online) },
	})

	alice, alicePeer := newSession(1)
	bob, _ := newSession(2)
	registry.SetOnline(alice)
	registry.SetOnline(bob)
	alicePeer.Reset()

	req.True(registry.SetOffline(bob))

	offline := alicePeer.Named(realtime.EventUserOffline)
	req.Len(offline, 1)
	req.Equal(dto.UserPresenceDTO{UserID: 2}, offline[0].Data)
	_, ok := registry.IsOnline(2)
	req.False(ok)
	req.Equal([]bool{true, true, false}, changes)
}

func TestRegistry_SendTo_ClosedPeerFailsSilently(t *testing.T) {
	req := require.New(t)
	registry := realtime.NewRegistry(realtime.RegistryHooks{})
	alice, alicePeer := newSession(1)
	registry.SetOnline(alice)

	alicePeer.Close(1000, "")

	req.False(registry.SendTo(1, realtime.NewEvent(realtime.EventNewMessage, nil)))
	req.False(registry.SendTo(99, realtime.NewEvent(realtime.EventNewMessage, nil)))
}

func TestRegistry_ConcurrentConnectDisconnect(t *testing.T) {
	req := require.New(t)
	registry := realtime.NewRegistry(realtime.RegistryHooks{})

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, _ := newSession(uint64(i % 8))
			registry.SetOnline(s)
			_, _ = registry.IsOnline(uint64(i % 8))
			_ = registry.ListOnline()
			registry.SetOffline(s)
		}(i)
	}
	wg.Wait()

	req.LessOrEqual(len(registry.ListOnline()), 8)
}

// gatedPeer 第一次收到 user-offline 时阻塞，直到 release 被关闭
type gatedPeer struct {
	*realtimetest.Peer
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *gatedPeer) Send(evt *realtime.Event) error {
	if evt.Name == realtime.EventUserOffline {
		p.once.Do(func() {
			close(p.entered)
			<-p.release
		})
	}
	return p.Peer.Send(evt)
}

func TestRegistry_ReconnectDuringOfflineFanOutKeepsOrder(t *testing.T) {
	req := require.New(t)
	var (
		changesMu sync.Mutex
		changes   []bool
	)
	registry := realtime.NewRegistry(realtime.RegistryHooks{
		Changed: func(_ uint64, online bool) {
			changesMu.Lock()
			changes = append(changes, online)
			changesMu.Unlock()
		},
	})

	// Given an observer whose delivery of the first user-offline stalls
	observer := &gatedPeer{
		Peer:    realtimetest.NewPeer(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	registry.SetOnline(realtime.NewSession(observer, &security.Identity{UserID: 1}))
	first, _ := newSession(2)
	registry.SetOnline(first)
	observer.Reset()

	// When user 2 disconnects and reconnects on separate goroutines
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.SetOffline(first)
	}()
	<-observer.entered

	second, _ := newSession(2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.SetOnline(second)
	}()
	req.Eventually(func() bool {
		current, ok := registry.IsOnline(2)
		return ok && current == second
	}, time.Second, 5*time.Millisecond)

	close(observer.release)
	wg.Wait()

	// Then the observer's last presence event agrees with the registry
	var presence []string
	for _, e := range observer.Events() {
		if e.Name == realtime.EventUserOnline || e.Name == realtime.EventUserOffline {
			presence = append(presence, e.Name)
		}
	}
	req.Equal([]string{realtime.EventUserOffline, realtime.EventUserOnline}, presence)
	req.Equal([]bool{true, true, false, true}, changes)
}
