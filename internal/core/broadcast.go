package core

import (
	"errors"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/TaskRoom/internal/domain"
)

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SendTo  int
	Skipped int
	Dropped []*MemberSession
}

func (p *PublishResult) Merge(o PublishResult) {
	p.SendTo += o.SendTo
	p.Skipped += o.Skipped
	p.Dropped = append(p.Dropped, o.Dropped...)
}

// Encode serializes an outbound event into a frame.
func Encode(ev domain.Event) (Frame, error) {
	return json.Marshal(ev)
}

func deliver(ms *MemberSession, f Frame, res *PublishResult) {
	conn := ms.Signal()
	if conn == nil || !conn.Ready() {
		res.Skipped++
		return
	}
	switch err := conn.TrySend(f); {
	case err == nil:
		res.SendTo++
	case errors.Is(err, ErrBackpressure):
		res.Dropped = append(res.Dropped, ms)
	default:
		res.Skipped++
	}
}

func (s *RoomState) fanout(ev domain.Event, include func(*MemberSession) bool) PublishResult {
	res := PublishResult{}
	f, err := Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("type", ev.EventType()).Msg("encode event")
		return res
	}
	for _, ms := range s.Members() {
		if include(ms) {
			deliver(ms, f, &res)
		}
	}
	log.Debug().
		Str("module", "core.room").
		Str("room", string(s.name)).
		Str("type", ev.EventType()).
		Int("sent_to", res.SendTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}

// SendTo delivers ev to a single session if it is online.
func (s *RoomState) SendTo(ms *MemberSession, ev domain.Event) PublishResult {
	res := PublishResult{}
	f, err := Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("type", ev.EventType()).Msg("encode event")
		return res
	}
	deliver(ms, f, &res)
	return res
}

// Broadcast delivers ev to every online member.
func (s *RoomState) Broadcast(ev domain.Event) PublishResult {
	return s.fanout(ev, func(*MemberSession) bool { return true })
}

// BroadcastExcept delivers ev to every online member other than key.
func (s *RoomState) BroadcastExcept(key domain.MemberKey, ev domain.Event) PublishResult {
	return s.fanout(ev, func(ms *MemberSession) bool { return ms.Meta().Key != key })
}

// BroadcastState pushes the full snapshot to every online member.
func (s *RoomState) BroadcastState() PublishResult {
	return s.Broadcast(s.Snapshot())
}
