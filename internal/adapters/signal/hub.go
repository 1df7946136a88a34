package signal

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yokyay/classhub/internal/core"
)

// Hub tracks every live socket connection and implements core.Notifier.
// Events are marshalled once and pushed through each connection's buffered
// send channel, so per-connection order follows emission order.
type Hub struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*WsConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[core.ConnID]*WsConn)}
}

func (h *Hub) Add(id core.ConnID, c *WsConn) {
	h.mu.Lock()
	h.conns[id] = c
	h.mu.Unlock()
}

func (h *Hub) Remove(id core.ConnID) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// ConnectionCount feeds the socket gauge. Implements app.ConnCounter.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) ToConnection(id core.ConnID, event any) {
	data, ok := marshalEvent(event)
	if !ok {
		return
	}
	h.mu.RLock()
	c := h.conns[id]
	h.mu.RUnlock()
	if c != nil {
		_ = c.TrySend(data)
	}
}

func (h *Hub) ToConnections(ids []core.ConnID, event any) {
	data, ok := marshalEvent(event)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make([]*WsConn, 0, len(ids))
	for _, id := range ids {
		if c, found := h.conns[id]; found {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		_ = c.TrySend(data)
	}
}

func (h *Hub) ToEveryone(event any) {
	data, ok := marshalEvent(event)
	if !ok {
		return
	}
	h.mu.RLock()
	targets := make([]*WsConn, 0, len(h.conns))
	for _, c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		_ = c.TrySend(data)
	}
}

func marshalEvent(event any) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("event marshal")
		return nil, false
	}
	return data, true
}
