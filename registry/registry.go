// Session Registry: a capacity-2 directory from a transport
// connection to a stable player identity.
//
// The teacher's queue.go drives its waiting-client list from a single
// goroutine selecting over enqueue/forget channels, so registration
// and de-registration never race each other. This package keeps that
// single-writer discipline but replaces the channel-driven matchmaking
// loop (out of scope: spec.md forbids matchmaking across games) with
// a mutex-guarded slice sized to exactly two seats, closer to how
// vector-racer's Room guards its players map with a sync.RWMutex for
// Attach/Remove/broadcast.
package registry

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	sk "go-skirmish"
)

// ErrFull is returned by Attach once both seats are occupied.
var ErrFull = errors.New("registry: session is full")

// ErrUnknownConn is returned by any operation naming a connection id
// that was never attached, or was already detached.
var ErrUnknownConn = errors.New("registry: unknown connection")

// Conn is a connection's transport-facing mailbox: Send pushes one
// outbound frame (already serialized by the message boundary) to the
// connection's writer goroutine.
type Conn interface {
	Send(frame []byte) error
}

type seat struct {
	id     uuid.UUID
	player sk.PlayerID
	conn   Conn
	ready  bool
}

// Registry tracks the (at most two) connections attached to the one
// game this process runs, per spec §4.2 and the Non-goal ruling out
// multi-game matchmaking.
type Registry struct {
	mu    sync.RWMutex
	seats []seat
}

// New returns an empty, unattached Registry.
func New() *Registry {
	return &Registry{}
}

// Attach assigns conn the next open seat ("player-1" then "player-2")
// and returns its internal connection id (used only in log lines and
// for later Ready/PlayerOf/Detach calls — never serialized on the
// wire, where identity is always the PlayerID).
func (r *Registry) Attach(conn Conn) (uuid.UUID, sk.PlayerID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.seats) >= 2 {
		return uuid.UUID{}, "", ErrFull
	}

	player := sk.PlayerID("player-1")
	for _, s := range r.seats {
		if s.player == player {
			player = "player-2"
		}
	}
	id := uuid.New()
	r.seats = append(r.seats, seat{id: id, player: player, conn: conn})
	return id, player, nil
}

// Ready marks a seat as having confirmed readiness (e.g. after an
// initial handshake frame). Returns whether both seats are now ready.
func (r *Registry) Ready(id uuid.UUID) (bothReady bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index(id)
	if !ok {
		return false, ErrUnknownConn
	}
	r.seats[i].ready = true

	if len(r.seats) != 2 {
		return false, nil
	}
	return r.seats[0].ready && r.seats[1].ready, nil
}

// Detach removes a seat, freeing it for a future Attach. Detaching an
// unknown or already-detached connection returns ErrUnknownConn rather
// than panicking.
func (r *Registry) Detach(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index(id)
	if !ok {
		return ErrUnknownConn
	}
	r.seats = append(r.seats[:i], r.seats[i+1:]...)
	return nil
}

// PlayerOf returns the stable identity assigned to a connection id.
func (r *Registry) PlayerOf(id uuid.UUID) (sk.PlayerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index(id)
	if !ok {
		return "", false
	}
	return r.seats[i].player, true
}

// ConnOf returns the transport connection currently seated as player.
func (r *Registry) ConnOf(player sk.PlayerID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.seats {
		if s.player == player {
			return s.conn, true
		}
	}
	return nil, false
}

// Unicast sends frame to exactly the connection seated as player.
func (r *Registry) Unicast(player sk.PlayerID, frame []byte) error {
	conn, ok := r.ConnOf(player)
	if !ok {
		return ErrUnknownConn
	}
	return conn.Send(frame)
}

// Broadcast sends frame to every attached connection. Errors from
// individual seats are collected but do not stop delivery to the
// others, mirroring vector-racer's broadcastUnlocked loop which never
// lets one stale connection block the rest of the room.
func (r *Registry) Broadcast(frame []byte) []error {
	r.mu.RLock()
	seats := make([]seat, len(r.seats))
	copy(seats, r.seats)
	r.mu.RUnlock()

	var errs []error
	for _, s := range seats {
		if err := s.conn.Send(frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Occupancy returns how many of the two seats are currently attached.
func (r *Registry) Occupancy() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.seats)
}

func (r *Registry) index(id uuid.UUID) (int, bool) {
	for i, s := range r.seats {
		if s.id == id {
			return i, true
		}
	}
	return 0, false
}
