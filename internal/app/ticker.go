package app

import (
	"context"
	"time"

	"github.com/dkeye/TaskRoom/internal/core"
	"github.com/rs/zerolog/log"
)

const DefaultTickInterval = time.Second

// Ticker advances running task stopwatches once per interval. Each room
// that changed gets exactly one snapshot per tick.
type Ticker struct {
	Rooms    *core.RoomManager
	Policy   Policy
	Interval time.Duration
}

func (t *Ticker) Run(ctx context.Context) error {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	tk := time.NewTicker(interval)
	defer tk.Stop()

	log.Info().Str("module", "app.ticker").Dur("interval", interval).Msg("ticker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.ticker").Msg("ticker stopped")
			return nil
		case <-tk.C:
			t.Tick()
		}
	}
}

// Tick runs one cycle over every room and returns how many rooms were
// broadcast.
func (t *Ticker) Tick() int {
	broadcast := 0
	for _, room := range t.Rooms.All() {
		room.Do(func(s *core.RoomState) {
			if !s.Tick() {
				return
			}
			broadcast++
			ApplyPolicy(t.Policy, s.Name(), s.BroadcastState())
		})
	}
	return broadcast
}
