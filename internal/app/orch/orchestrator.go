package orch

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/TaskRoom/internal/app"
	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
)

const DefaultMemberName = "Anonymous"

// Orchestrator is the core's single entry point for the connection
// gateway: Connect when a transport opens, OnCommand per parsed message,
// OnDisconnect when it closes. Client mistakes are never answered with an
// error; they are logged and dropped.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *core.RoomManager
	Policy   app.Policy
	Calendar app.Calendar

	// AdminName is the display name allowed to kick, compared
	// case-insensitively. Empty disables kicking.
	AdminName    string
	DefaultName  string
	PendingLimit int
}

var _ core.CommandHandler = (*Orchestrator)(nil)

func (o *Orchestrator) logger(id core.ConnID) *zerolog.Logger {
	l := log.With().Str("module", "app.orch").Str("conn", string(id)).Logger()
	return &l
}

// Connect registers a freshly opened, not yet identified connection.
func (o *Orchestrator) Connect(id core.ConnID, conn core.SignalConnection) {
	o.Registry.Bind(id, conn)
}

func (o *Orchestrator) OnCommand(id core.ConnID, cmd core.Command) {
	cmd.Dispatch(o, id)
}

// OnDisconnect marks the connection's member offline. Tasks keep running.
func (o *Orchestrator) OnDisconnect(id core.ConnID) {
	roomName, key, ok := o.Registry.Unbind(id)
	if !ok {
		return
	}
	o.detach(id, roomName, key)
}

// withMember runs fn inside the room of the member identified by conn.
// fn reports whether it changed anything; a change ends with one
// snapshot broadcast.
func (o *Orchestrator) withMember(id core.ConnID, op string, fn func(s *core.RoomState, ms *core.MemberSession) bool) {
	l := o.logger(id)
	roomName, key, ok := o.Registry.MemberOf(id)
	if !ok {
		l.Debug().Str("op", op).Msg("command from unidentified connection dropped")
		return
	}
	room, ok := o.Rooms.Get(string(roomName))
	if !ok {
		return
	}
	room.Do(func(s *core.RoomState) {
		ms, ok := s.Member(key)
		if !ok || ms.ConnID() != id {
			l.Debug().Str("op", op).Str("member", string(key)).Msg("member gone or superseded, dropped")
			return
		}
		if !fn(s, ms) {
			l.Debug().Str("op", op).Str("member", string(key)).Msg("no-op")
			return
		}
		o.publish(s, s.BroadcastState())
	})
}

func (o *Orchestrator) publish(s *core.RoomState, res core.PublishResult) {
	app.ApplyPolicy(o.Policy, s.Name(), res)
}

// notify queues ev behind anything ms still has pending and delivers as
// much of the queue as the connection accepts.
func (o *Orchestrator) notify(s *core.RoomState, ms *core.MemberSession, ev domain.Event) {
	ms.Meta().Enqueue(ev, o.PendingLimit)
	if ms.Online() {
		o.flushPending(s, ms)
	}
}

// flushPending sends queued events in order and stops at the first one the
// connection refuses. Only delivered events leave the queue. A full buffer
// here never triggers the backpressure policy; the rest waits.
func (o *Orchestrator) flushPending(s *core.RoomState, ms *core.MemberSession) {
	m := ms.Meta()
	sent := 0
	for _, ev := range m.Pending {
		if s.SendTo(ms, ev).SendTo == 0 {
			break
		}
		sent++
	}
	m.AckPending(sent)
	if left := len(m.Pending); left > 0 {
		log.Debug().Str("module", "app.orch").Str("room", string(s.Name())).Str("member", string(m.Key)).
			Int("sent", sent).Int("left", left).Msg("pending notifications held back")
	}
}

func (o *Orchestrator) today() domain.Date {
	if o.Calendar.Clock == nil {
		return app.NewCalendar(nil, nil).Today()
	}
	return o.Calendar.Today()
}

func (o *Orchestrator) defaultName() string {
	if o.DefaultName == "" {
		return DefaultMemberName
	}
	return o.DefaultName
}
