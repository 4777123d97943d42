package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/TaskRoom/internal/core"
)

func (ctl *SignalWSController) pingPeriod() time.Duration {
	if ctl.PingPeriod <= 0 {
		return DefaultPingPeriod
	}
	return ctl.PingPeriod
}

func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.pingPeriod() * 10 / 9
}

// writePump owns every write to the socket and closes it on exit.
func (ctl *SignalWSController) writePump(ctx context.Context, id core.ConnID, c *WsSignalConn) {
	l := log.With().Str("module", "adapters.signal").Str("conn", string(id)).Logger()
	ping := time.NewTicker(ctl.pingPeriod())
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			l.Debug().Msg("writePump ctx done")
			c.Close()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
				time.Now().Add(writeWait))
			return
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				l.Error().Err(err).Msg("writePump set deadline")
				return
			}
			if !ok {
				l.Debug().Msg("writePump channel closed")
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				l.Error().Err(err).Msg("writePump write error")
				c.Close()
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				l.Error().Err(err).Msg("writePump ping error")
				c.Close()
				return
			}
		}
	}
}

// readPump feeds decoded commands to the gateway until the socket fails,
// then reports the disconnect.
func (ctl *SignalWSController) readPump(id core.ConnID, c *WsSignalConn) {
	l := log.With().Str("module", "adapters.signal").Str("conn", string(id)).Logger()
	defer func() {
		l.Info().Msg("readPump closing")
		ctl.Gateway.OnDisconnect(id)
		ctl.Limiter.Forget(id)
		c.Close()
	}()

	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}
	wait := ctl.pongWait()
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				l.Warn().Err(err).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(id, data)
	}
}

func (ctl *SignalWSController) handleSignal(id core.ConnID, data []byte) {
	l := log.With().Str("module", "adapters.signal").Str("conn", string(id)).Logger()
	if !ctl.Limiter.Allow(id) {
		l.Debug().Msg("rate limited, command dropped")
		return
	}
	cmd, err := Decode(data)
	if err != nil {
		ev := l.Debug().Err(err)
		if errors.Is(err, ErrUnknownCommand) {
			ev = ev.Bool("unknown", true)
		}
		ev.Msg("bad message dropped")
		return
	}
	ctl.Gateway.OnCommand(id, cmd)
}
