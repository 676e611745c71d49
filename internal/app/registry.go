package app

import (
	"sync"
)

// Peer is the server-side record of one live connection. Outbound events are queued on a
// bounded channel drained by the transport's writer goroutine.
type Peer struct {
	id   string
	send chan Event
	done chan struct{}
	once sync.Once
}

// NewPeer creates a peer with an outbound queue of the given size.
func NewPeer(id string, buffer int) *Peer {
	if buffer <= 0 {
		buffer = 1
	}
	return &Peer{
		id:   id,
		send: make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

func (p *Peer) ID() string { return p.id }

// Outbound is the queue the transport writes to the socket.
func (p *Peer) Outbound() <-chan Event { return p.send }

// Done is closed once the peer is closed or evicted for falling behind.
func (p *Peer) Done() <-chan struct{} { return p.done }

// Close stops delivery to the peer. Safe to call more than once.
func (p *Peer) Close() {
	p.once.Do(func() { close(p.done) })
}

// deliver enqueues without blocking. A full queue evicts the peer; dropping a frame
// silently would break per-room ordering for that client.
func (p *Peer) deliver(ev Event) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.send <- ev:
		return true
	default:
		p.Close()
		return false
	}
}

// LeaveFunc is invoked after a connection is unregistered while bound to a room.
type LeaveFunc func(connID, roomID string)

// Registry maps live connections to peers and to the room they are in.
type Registry struct {
	mu      sync.RWMutex
	peers   map[string]*Peer
	rooms   map[string]string
	onLeave LeaveFunc
}

func NewRegistry() *Registry {
	return &Registry{
		peers: make(map[string]*Peer),
		rooms: make(map[string]string),
	}
}

// OnLeave installs the disconnect hook. It must be set before connections arrive.
func (r *Registry) OnLeave(fn LeaveFunc) {
	r.mu.Lock()
	r.onLeave = fn
	r.mu.Unlock()
}

func (r *Registry) Register(p *Peer) {
	r.mu.Lock()
	r.peers[p.id] = p
	r.mu.Unlock()
}

// Unregister drops the connection and, if it was in a room, runs the leave hook
// outside the registry lock.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	p, ok := r.peers[connID]
	delete(r.peers, connID)
	roomID, bound := r.rooms[connID]
	delete(r.rooms, connID)
	hook := r.onLeave
	r.mu.Unlock()

	if ok {
		p.Close()
	}
	if bound && hook != nil {
		hook(connID, roomID)
	}
}

// Bind records the room a connection is in. It reports false if the connection
// is no longer registered.
func (r *Registry) Bind(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, live := r.peers[connID]; !live {
		return false
	}
	r.rooms[connID] = roomID
	return true
}

// Unbind clears the room binding if it still points at roomID.
func (r *Registry) Unbind(connID, roomID string) {
	r.mu.Lock()
	if r.rooms[connID] == roomID {
		delete(r.rooms, connID)
	}
	r.mu.Unlock()
}

func (r *Registry) LookupRoom(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.rooms[connID]
	return roomID, ok
}

// Send delivers ev to one connection. It never blocks.
func (r *Registry) Send(connID string, ev Event) bool {
	r.mu.RLock()
	p, ok := r.peers[connID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return p.deliver(ev)
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
