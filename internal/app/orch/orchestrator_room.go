package orch

import (
	"strings"

	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
)

// Join identifies a connection as a member of a room, creating the room
// and the member on first use. A returning member gets its session back.
func (o *Orchestrator) Join(id core.ConnID, cmd core.JoinCommand) {
	l := o.logger(id)
	conn, ok := o.Registry.Conn(id)
	if !ok {
		l.Debug().Msg("join from unknown connection dropped")
		return
	}

	name := domain.CleanName(cmd.Name)
	if name == "" {
		name = o.defaultName()
	}
	key := domain.KeyOf(name)
	roomName := o.Rooms.Normalize(cmd.Room)

	if prevRoom, prevKey, ok := o.Registry.MemberOf(id); ok && (prevRoom != roomName || prevKey != key) {
		l.Info().Str("from_room", string(prevRoom)).Str("from_member", string(prevKey)).Msg("leaving previous identity")
		o.detach(id, prevRoom, prevKey)
	}

	var (
		supersededID   core.ConnID
		supersededConn core.SignalConnection
		created        bool
	)
	o.Rooms.GetOrCreate(string(roomName)).Do(func(s *core.RoomState) {
		var ms *core.MemberSession
		ms, created = s.Enter(name)
		supersededID, supersededConn = ms.Attach(id, conn)

		m := ms.Meta()
		res := s.SendTo(ms, domain.NewJoinedEvent(m.Key, m.TasksSnapshot()))
		res.Merge(s.BroadcastState())
		o.publish(s, res)
		o.flushPending(s, ms)
	})
	if !o.Registry.UpdateMember(id, roomName, key) {
		l.Debug().Str("member", string(key)).Msg("connection closed during join")
		o.detach(id, roomName, key)
	}

	if supersededConn != nil {
		l.Info().Str("member", string(key)).Str("superseded", string(supersededID)).Msg("closing superseded connection")
		o.Registry.ClearMember(supersededID)
		supersededConn.Close()
	}
	l.Info().Str("room", string(roomName)).Str("member", string(key)).Bool("new", created).Msg("join")
}

// detach takes a member offline if id is still its connection.
func (o *Orchestrator) detach(id core.ConnID, roomName domain.RoomName, key domain.MemberKey) {
	room, ok := o.Rooms.Get(string(roomName))
	if !ok {
		return
	}
	room.Do(func(s *core.RoomState) {
		ms, ok := s.Member(key)
		if !ok || !ms.Detach(id) {
			return
		}
		o.logger(id).Info().Str("room", string(roomName)).Str("member", string(key)).Msg("member offline")
		o.publish(s, s.BroadcastState())
	})
}

func (o *Orchestrator) isAdmin(name string) bool {
	return o.AdminName != "" && strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(o.AdminName))
}

// KickUser removes a member and everything it owns. Only the admin may
// kick; anyone else is ignored without a reply.
func (o *Orchestrator) KickUser(id core.ConnID, cmd core.KickUserCommand) {
	var kickedConn core.ConnID
	o.withMember(id, "kick_user", func(s *core.RoomState, actor *core.MemberSession) bool {
		l := o.logger(id)
		if !o.isAdmin(actor.Meta().Name) {
			l.Warn().Str("member", string(actor.Meta().Key)).Str("target", cmd.TargetKey).Msg("unauthorized kick ignored")
			return false
		}
		target, ok := s.Member(domain.KeyOf(cmd.TargetKey))
		if !ok {
			return false
		}
		if target.Online() {
			o.publish(s, s.SendTo(target, domain.NewKickedEvent()))
			kickedConn = target.ConnID()
			target.Signal().Close()
		}
		s.Remove(target.Meta().Key)
		l.Info().Str("room", string(s.Name())).Str("target", string(target.Meta().Key)).Msg("member kicked")
		return true
	})
	if kickedConn != "" {
		o.Registry.ClearMember(kickedConn)
	}
}
