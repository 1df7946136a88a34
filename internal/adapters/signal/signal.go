package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/yokyay/classhub/internal/config"
	"github.com/yokyay/classhub/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket side: one Hub of live connections and the
// coordinator every inbound event is handed to.
type Controller struct {
	Hub   *Hub
	Coord *core.Coordinator
	cfg   *config.Config
}

func NewController(hub *Hub, coord *core.Coordinator, cfg *config.Config) *Controller {
	return &Controller{Hub: hub, Coord: coord, cfg: cfg}
}

// WsConn is the transport endpoint of one connection. Writes go through a
// buffered channel drained by writePump; a full buffer drops the frame.
type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection until its transport
// drops. Disconnect cleanup is driven by readPump exit, never by timers.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.cfg.ReadLimit)
	}

	sid := core.ConnID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctl.Hub.Add(sid, conn)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
		ctl.Hub.Remove(sid)
		ctl.Coord.Disconnect(sid)
	}()
}
