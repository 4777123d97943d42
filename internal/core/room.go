package core

import (
	"context"

	"github.com/dkeye/TaskRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomOp struct {
	fn   func(*RoomState)
	done chan struct{}
}

// Room is a single-writer executor around a RoomState. Every read or
// mutation of the state goes through Do, so commands, ticks and
// disconnects on the same room never interleave.
type Room struct {
	name   domain.RoomName
	state  *RoomState
	ops    chan roomOp
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRoom(ctx context.Context, cancel context.CancelFunc, name domain.RoomName) *Room {
	return &Room{
		name:   name,
		state:  newRoomState(name),
		ops:    make(chan roomOp),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *Room) Name() domain.RoomName { return r.name }

// Run executes submitted operations until the room is stopped.
func (r *Room) Run() {
	for {
		select {
		case <-r.ctx.Done():
			log.Debug().Str("module", "core.room").Str("room", string(r.name)).Msg("room stopped")
			return
		case op := <-r.ops:
			r.exec(op)
		}
	}
}

func (r *Room) exec(op roomOp) {
	defer close(op.done)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("module", "core.room").Str("room", string(r.name)).Interface("panic", rec).Msg("room operation panicked")
		}
	}()
	op.fn(r.state)
}

// Do runs fn on the room's executor and waits for it to finish. fn must
// not call Do on the same room. Reports false if the room was stopped
// before fn could start.
func (r *Room) Do(fn func(*RoomState)) bool {
	op := roomOp{fn: fn, done: make(chan struct{})}
	select {
	case r.ops <- op:
	case <-r.ctx.Done():
		return false
	}
	<-op.done
	return true
}

func (r *Room) Stop() { r.cancel() }
