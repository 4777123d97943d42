package core

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/TaskRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"memberCount"`
	OnlineCount int             `json:"onlineCount"`
}

// RoomManager owns every room of the process. Rooms are created lazily
// and live until Close.
type RoomManager struct {
	ctx         context.Context
	cancel      context.CancelFunc
	defaultRoom domain.RoomName

	mu    sync.RWMutex
	rooms map[domain.RoomName]*Room
}

func NewRoomManager(parent context.Context, defaultRoom string) *RoomManager {
	ctx, cancel := context.WithCancel(parent)
	def := domain.NormalizeRoomName(defaultRoom)
	if def == "" {
		def = "default"
	}
	return &RoomManager{
		ctx:         ctx,
		cancel:      cancel,
		defaultRoom: def,
		rooms:       make(map[domain.RoomName]*Room),
	}
}

// Normalize maps a raw room name to its canonical form, falling back to
// the default room for blank input.
func (rm *RoomManager) Normalize(raw string) domain.RoomName {
	if name := domain.NormalizeRoomName(raw); name != "" {
		return name
	}
	return rm.defaultRoom
}

// GetOrCreate never fails: it returns the existing room or starts a new
// empty one.
func (rm *RoomManager) GetOrCreate(raw string) *Room {
	name := rm.Normalize(raw)

	rm.mu.RLock()
	room, ok := rm.rooms[name]
	rm.mu.RUnlock()
	if ok {
		return room
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if room, ok = rm.rooms[name]; ok {
		return room
	}
	roomCtx, roomCancel := context.WithCancel(rm.ctx)
	room = NewRoom(roomCtx, roomCancel, name)
	rm.rooms[name] = room
	go room.Run()
	log.Info().Str("module", "core.rooms").Str("room", string(name)).Msg("room created")
	return room
}

// Get looks a room up without creating it.
func (rm *RoomManager) Get(raw string) (*Room, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	room, ok := rm.rooms[domain.NormalizeRoomName(raw)]
	return room, ok
}

// All returns every room sorted by name.
func (rm *RoomManager) All() []*Room {
	rm.mu.RLock()
	out := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		out = append(out, r)
	}
	rm.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Room) int { return strings.Compare(string(a.name), string(b.name)) })
	return out
}

func (rm *RoomManager) List() []RoomInfo {
	rooms := rm.All()
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info := RoomInfo{Name: r.Name()}
		r.Do(func(s *RoomState) {
			info.MemberCount = s.MemberCount()
			info.OnlineCount = s.OnlineCount()
		})
		out = append(out, info)
	}
	return out
}

// Close stops every room executor.
func (rm *RoomManager) Close() {
	rm.cancel()
	log.Info().Str("module", "core.rooms").Msg("room manager closed")
}
