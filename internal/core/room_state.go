package core

import (
	"slices"

	"github.com/dkeye/TaskRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomState is the member set of one room. It is only touched from inside
// Room.Do and therefore carries no lock.
type RoomState struct {
	name    domain.RoomName
	members map[domain.MemberKey]*MemberSession
	order   []domain.MemberKey
}

func newRoomState(name domain.RoomName) *RoomState {
	return &RoomState{
		name:    name,
		members: make(map[domain.MemberKey]*MemberSession),
	}
}

func (s *RoomState) Name() domain.RoomName { return s.name }

func (s *RoomState) Member(key domain.MemberKey) (*MemberSession, bool) {
	ms, ok := s.members[key]
	return ms, ok
}

// Enter returns the session for name's key, creating it on first sight.
// An existing session keeps its tasks and score and adopts the new casing.
func (s *RoomState) Enter(name string) (ms *MemberSession, created bool) {
	key := domain.KeyOf(name)
	if ms, ok := s.members[key]; ok {
		ms.Meta().Rename(name)
		return ms, false
	}
	ms = NewMemberSession(domain.NewMember(name))
	s.members[key] = ms
	s.order = append(s.order, key)
	log.Info().Str("module", "core.room").Str("room", string(s.name)).Str("member", string(key)).Msg("member added")
	return ms, true
}

// Remove deletes a session and everything it owns.
func (s *RoomState) Remove(key domain.MemberKey) bool {
	if _, ok := s.members[key]; !ok {
		return false
	}
	delete(s.members, key)
	s.order = slices.DeleteFunc(s.order, func(k domain.MemberKey) bool { return k == key })
	log.Info().Str("module", "core.room").Str("room", string(s.name)).Str("member", string(key)).Msg("member removed")
	return true
}

// Members lists sessions in join order.
func (s *RoomState) Members() []*MemberSession {
	out := make([]*MemberSession, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.members[k])
	}
	return out
}

func (s *RoomState) MemberCount() int { return len(s.members) }

func (s *RoomState) OnlineCount() int {
	n := 0
	for _, ms := range s.members {
		if ms.Online() {
			n++
		}
	}
	return n
}

// Snapshot builds the full room_state payload.
func (s *RoomState) Snapshot() domain.RoomStateEvent {
	views := make([]domain.MemberView, 0, len(s.order))
	for _, ms := range s.Members() {
		views = append(views, ms.View())
	}
	return domain.RoomStateEvent{Type: domain.EventRoomState, Members: views}
}

// Tick advances every running task in the room by one second and reports
// whether any task changed.
func (s *RoomState) Tick() bool {
	changed := false
	for _, ms := range s.members {
		if ms.Meta().Tick() {
			changed = true
		}
	}
	return changed
}
