package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/TaskRoom/internal/core"
)

const (
	DefaultSendBuffer = 128
	DefaultReadLimit  = 32768
	DefaultPingPeriod = 54 * time.Second
	writeWait         = 5 * time.Second
)

// Gateway receives the life cycle of every connection.
type Gateway interface {
	Connect(id core.ConnID, conn core.SignalConnection)
	OnCommand(id core.ConnID, cmd core.Command)
	OnDisconnect(id core.ConnID)
}

type SignalWSController struct {
	Gateway    Gateway
	Limiter    *CommandLimiter
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

func NewSignalWSController(gw Gateway) *SignalWSController {
	return &SignalWSController{
		Gateway:    gw,
		ReadLimit:  DefaultReadLimit,
		PingPeriod: DefaultPingPeriod,
		SendBuffer: DefaultSendBuffer,
	}
}

// WsSignalConn is the websocket implementation of core.SignalConnection.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Close stops accepting frames. The write pump flushes what is queued and
// then closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	id := core.ConnID(uuid.NewString())
	l := log.With().Str("module", "adapters.signal").Str("conn", string(id)).Str("ct", c.GetString("client_token")).Logger()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Error().Err(err).Msg("ws upgrade")
		return
	}
	l.Info().Str("remote", c.ClientIP()).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.SendBuffer)
	ctl.Gateway.Connect(id, conn)

	go ctl.writePump(ctx, id, conn)
	go ctl.readPump(id, conn)
}
