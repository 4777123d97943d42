package app

import (
	"sync"

	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn   core.SignalConnection
	Room   domain.RoomName
	Member domain.MemberKey
}

// Registry maps live connections to the member identity they joined as.
// A connection without a member is connected but not yet identified.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

func (r *Registry) Bind(id core.ConnID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Conn: conn}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("bound connection")
}

func (r *Registry) Conn(id core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

// MemberOf returns the room and member a connection is identified as.
func (r *Registry) MemberOf(id core.ConnID) (domain.RoomName, domain.MemberKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Member == "" {
		return "", "", false
	}
	return e.Room, e.Member, true
}

func (r *Registry) UpdateMember(id core.ConnID, room domain.RoomName, key domain.MemberKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.Room, e.Member = room, key
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(room)).Str("member", string(key)).Msg("updated member")
	return true
}

// ClearMember forgets the identity of a connection but keeps it bound, so
// later commands from it are dropped as unidentified.
func (r *Registry) ClearMember(id core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Room, e.Member = "", ""
		log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("cleared member")
	}
}

// Unbind removes the connection and returns the identity it had.
func (r *Registry) Unbind(id core.ConnID) (domain.RoomName, domain.MemberKey, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", "", false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbind connection")
	return e.Room, e.Member, e.Member != ""
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
