package app

import (
	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/dkeye/TaskRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	Disconnect
)

type Policy interface {
	OnBackPressure(room domain.RoomName, member *core.MemberSession) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(domain.RoomName, *core.MemberSession) BackpressureAction {
	return p.Action
}

// PolicyFor maps the config value to a policy. Unknown values drop frames.
func PolicyFor(mode string) Policy {
	if mode == "disconnect" {
		return SimplePolicy{Action: Disconnect}
	}
	return SimplePolicy{Action: DropFrame}
}

// ApplyPolicy handles the slow receivers of one publish. Closing a
// connection lets its read loop report the disconnect, which marks the
// member offline.
func ApplyPolicy(p Policy, room domain.RoomName, res core.PublishResult) {
	if p == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch p.OnBackPressure(room, slow) {
		case Disconnect:
			log.Warn().Str("module", "app.policy").Str("room", string(room)).Str("member", string(slow.Meta().Key)).Msg("slow client disconnected")
			if conn := slow.Signal(); conn != nil {
				conn.Close()
			}
		case DropFrame:
			log.Debug().Str("module", "app.policy").Str("room", string(room)).Str("member", string(slow.Meta().Key)).Msg("frame dropped")
		}
	}
}
