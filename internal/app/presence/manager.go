/*
Package presence holds the registry of session users and the engine that fans events out to them.

The Manager is the only owner of mutable user state. A single RWMutex serializes every
mutation (registration, connection flag, world membership, position) while broadcasts take
a snapshot under the read lock and push encoded frames to per-user queues after releasing it.
Each connected user has one dispatch goroutine draining its queue to every attached socket,
and one heartbeat timer rebroadcasting its position to the user's world.
*/
package presence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lemuria/internal/app/heartbeat"
	"lemuria/internal/app/user"
	"lemuria/internal/pkg/logx"
)

// ErrUnknownUser is returned when an identity has no registry entry.
var ErrUnknownUser = errors.New("unknown user")

// Socket is one attached transport of a user. Deliver must not block.
type Socket interface {
	Deliver(frame []byte) error
	Close()
}

// IntervalFunc returns the heartbeat interval for a world.
type IntervalFunc func(worldID int) time.Duration

// User is the registry entry of one identity. Its fields are guarded by the Manager's lock.
type User struct {
	id    string
	name  string
	queue *Queue
	timer *heartbeat.Timer

	// lifecycle serializes connect, disconnect and world changes of this user,
	// so that timer starts and cancels are applied in transition order.
	lifecycle sync.Mutex

	sockets   map[Socket]struct{}
	connected bool
	world     int
	position  user.Vec3
	orient    user.Vec3
	avatar    int
	state     string
	gesture   *string

	stopDispatch context.CancelFunc
}

// ID returns the session identity.
func (u *User) ID() string { return u.id }

// Name returns the display name.
func (u *User) Name() string { return u.name }

func (u *User) recordLocked() user.Record {
	return user.Record{
		ID:      u.id,
		Name:    u.name,
		Avatar:  u.avatar,
		World:   u.world,
		State:   u.state,
		Gesture: u.gesture,
		X:       u.position.X,
		Y:       u.position.Y,
		Z:       u.position.Z,
		Roll:    u.orient.X,
		Yaw:     u.orient.Y,
		Pitch:   u.orient.Z,
	}
}

func (u *User) posEventLocked() PosEvent {
	return PosEvent{
		User: u.id,
		Data: user.PosData{
			Pos:     u.position,
			Ori:     u.orient,
			State:   u.state,
			Gesture: u.gesture,
		},
	}
}

// Manager is the presence registry and broadcast engine.
type Manager struct {
	mu     sync.RWMutex
	users  map[string]*User
	closed bool

	interval IntervalFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger zerolog.Logger
}

// NewManager returns an empty registry. interval supplies per-world heartbeat cadences.
func NewManager(interval IntervalFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		users:    make(map[string]*User),
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logx.Logger().With().Str("component", "Presence").Logger(),
	}
}

// Register returns the entry for id, creating it with name if it does not exist yet.
// An existing entry keeps the name it was first registered with.
func (m *Manager) Register(id, name string) *User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[id]; ok {
		return u
	}

	u := &User{
		id:      id,
		name:    name,
		queue:   NewQueue(),
		sockets: make(map[Socket]struct{}),
		state:   user.DefaultState,
	}
	u.timer = heartbeat.New(func() bool { return m.heartbeat(u) })
	m.users[id] = u

	m.logger.Info().Str("user_id", id).Str("name", name).Int("total_users", len(m.users)).Msg("User registered.")

	return u
}

// Lookup returns the entry for id.
func (m *Manager) Lookup(id string) (*User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	return u, ok
}

// Snapshot returns a copy of the state of id.
func (m *Manager) Snapshot(id string) (user.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.Record{}, false
	}
	return u.recordLocked(), true
}

// IsConnected reports whether id has at least one attached socket.
func (m *Manager) IsConnected(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	return ok && u.connected
}

// ConnectedUsers returns the records of all connected users ordered by identity.
func (m *Manager) ConnectedUsers() []user.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.connectedRecordsLocked()
}

func (m *Manager) connectedRecordsLocked() []user.Record {
	records := make([]user.Record, 0, len(m.users))
	for _, u := range m.users {
		if u.connected {
			records = append(records, u.recordLocked())
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// OnlineCount returns the number of connected users in world.
func (m *Manager) OnlineCount(world int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, u := range m.users {
		if u.connected && u.world == world {
			n++
		}
	}
	return n
}

// OnlineCounts returns the number of connected users per world.
func (m *Manager) OnlineCounts() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[int]int)
	for _, u := range m.users {
		if u.connected {
			counts[u.world]++
		}
	}
	return counts
}

// SetWorld moves id into world, rebroadcasts the user list to everyone and, if the user is
// connected, restarts its heartbeat with the interval of the new world.
// It reports false when id is not registered.
func (m *Manager) SetWorld(id string, world int) bool {
	u, ok := m.Lookup(id)
	if !ok {
		return false
	}

	u.lifecycle.Lock()
	defer u.lifecycle.Unlock()

	m.mu.Lock()
	if m.users[id] != u {
		m.mu.Unlock()
		return false
	}
	u.world = world
	connected := u.connected
	m.mu.Unlock()

	m.logger.Debug().Str("user_id", id).Int("world_id", world).Msg("User changed world.")

	m.BroadcastUserList()

	if connected {
		u.timer.Start(m.interval(world))
	}
	return true
}

// Attach adds socket to the user id. The first socket marks the user connected, starts its
// heartbeat and broadcasts join followed by the refreshed list; further sockets only receive
// the current list.
func (m *Manager) Attach(id string, socket Socket) (*User, error) {
	u, ok := m.Lookup(id)
	if !ok {
		return nil, ErrUnknownUser
	}

	u.lifecycle.Lock()
	defer u.lifecycle.Unlock()

	m.mu.Lock()
	if m.closed || m.users[id] != u {
		m.mu.Unlock()
		return nil, ErrUnknownUser
	}

	u.sockets[socket] = struct{}{}
	first := !u.connected
	u.connected = true

	if u.stopDispatch == nil {
		ctx, cancel := context.WithCancel(m.ctx)
		u.stopDispatch = cancel
		m.wg.Add(1)
		go m.dispatch(ctx, u)
	}

	world := u.world
	sockets := len(u.sockets)
	m.mu.Unlock()

	m.logger.Info().Str("user_id", id).Int("sockets", sockets).Msg("Socket attached.")

	if !first {
		m.Enqueue(id, ListEvent{Users: m.ConnectedUsers()})
		return u, nil
	}

	u.timer.Start(m.interval(world))

	m.Broadcast(JoinEvent{Name: u.name})
	m.BroadcastUserList()

	return u, nil
}

// Detach removes socket from u and closes it. Removing the last socket marks the user
// disconnected, cancels its heartbeat and broadcasts part followed by the refreshed list.
// Detaching a socket that is not attached is a no-op, so concurrent closes of the same
// socket disconnect the user exactly once.
func (m *Manager) Detach(u *User, socket Socket) {
	u.lifecycle.Lock()
	defer u.lifecycle.Unlock()

	m.mu.Lock()
	if _, ok := u.sockets[socket]; !ok {
		m.mu.Unlock()
		return
	}
	delete(u.sockets, socket)

	last := len(u.sockets) == 0 && u.connected
	if last {
		u.connected = false
	}
	m.mu.Unlock()

	socket.Close()

	m.logger.Info().Str("user_id", u.id).Bool("last", last).Msg("Socket detached.")

	if !last {
		return
	}

	u.timer.Cancel()

	m.Broadcast(PartEvent{Name: u.name})
	m.BroadcastUserList()
}

// Remove deletes id from the registry, closing its sockets. A connected user is announced
// as departed. It reports false when id was not registered.
func (m *Manager) Remove(id string) bool {
	u, ok := m.Lookup(id)
	if !ok {
		return false
	}

	u.lifecycle.Lock()
	defer u.lifecycle.Unlock()

	m.mu.Lock()
	if m.users[id] != u {
		m.mu.Unlock()
		return false
	}
	delete(m.users, id)

	wasConnected := u.connected
	u.connected = false
	sockets := make([]Socket, 0, len(u.sockets))
	for s := range u.sockets {
		sockets = append(sockets, s)
	}
	u.sockets = make(map[Socket]struct{})
	stop := u.stopDispatch
	remaining := len(m.users)
	m.mu.Unlock()

	u.timer.Cancel()
	if stop != nil {
		stop()
	}
	for _, s := range sockets {
		s.Close()
	}

	m.logger.Info().Str("user_id", id).Int("total_users", remaining).Msg("User removed.")

	if wasConnected {
		m.Broadcast(PartEvent{Name: u.name})
		m.BroadcastUserList()
	}
	return true
}

// HandleInbound applies an event received from u. Chat lines are broadcast globally under
// the sender's name, avatar changes are stored and broadcast, and position updates are only
// stored; the heartbeat publishes them. Events from users no longer registered are ignored.
func (m *Manager) HandleInbound(u *User, ev Event) {
	m.mu.Lock()
	if m.users[u.id] != u {
		m.mu.Unlock()
		return
	}

	var out Event
	switch e := ev.(type) {
	case MsgEvent:
		out = MsgEvent{User: u.name, Text: e.Text}
	case PosEvent:
		u.position = e.Data.Pos
		u.orient = e.Data.Ori
		u.state = e.Data.State
		u.gesture = e.Data.Gesture
	case AvatarEvent:
		u.avatar = e.Avatar
		out = AvatarEvent{User: u.id, Avatar: e.Avatar}
	default:
		m.logger.Warn().Str("user_id", u.id).Str("msg_type", string(ev.Type())).Msg("Ignoring server-only event from client.")
	}
	m.mu.Unlock()

	if out != nil {
		m.Broadcast(out)
	}
}

// Shutdown disconnects everyone without broadcasting and waits for the dispatch loops to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	users := make([]*User, 0, len(m.users))
	var sockets []Socket
	for _, u := range m.users {
		users = append(users, u)
		for s := range u.sockets {
			sockets = append(sockets, s)
		}
		u.sockets = make(map[Socket]struct{})
		u.connected = false
	}
	m.mu.Unlock()

	for _, u := range users {
		u.timer.Cancel()
	}
	for _, s := range sockets {
		s.Close()
	}

	m.cancel()
	m.wg.Wait()

	m.logger.Info().Int("users", len(users)).Msg("Presence manager stopped.")
}

// heartbeat publishes u's position to its world. It asks to stop once u is gone or offline.
func (m *Manager) heartbeat(u *User) bool {
	m.mu.RLock()
	if !u.connected || m.users[u.id] != u {
		m.mu.RUnlock()
		return false
	}
	ev := u.posEventLocked()
	world := u.world
	m.mu.RUnlock()

	m.BroadcastWorld(world, ev)
	return true
}

// dispatch drains u's queue to every attached socket until ctx is done.
// A socket that fails to accept a frame is detached; the others still get it.
func (m *Manager) dispatch(ctx context.Context, u *User) {
	defer m.wg.Done()

	logger := m.logger.With().Str("user_id", u.id).Logger()
	logger.Debug().Msg("Dispatch loop started.")

	for {
		frame, err := u.queue.Pop(ctx)
		if err != nil {
			logger.Debug().Msg("Dispatch loop stopped.")
			return
		}

		m.mu.RLock()
		sockets := make([]Socket, 0, len(u.sockets))
		for s := range u.sockets {
			sockets = append(sockets, s)
		}
		m.mu.RUnlock()

		for _, s := range sockets {
			if err := s.Deliver(frame); err != nil {
				logger.Warn().Err(err).Msg("Socket rejected frame, detaching.")
				m.Detach(u, s)
			}
		}
	}
}
