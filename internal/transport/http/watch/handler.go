package watch

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Additional-Code/gavel/internal/auth"
	"github.com/Additional-Code/gavel/internal/broadcast"
	"github.com/Additional-Code/gavel/internal/presentation/http/response"
	"github.com/Additional-Code/gavel/pkg/errorbank"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Handler upgrades watchers to WebSocket connections and bridges them onto
// the broadcast hub's item topics.
type Handler struct {
	hub        *broadcast.Hub
	identities auth.Provider
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHandler constructs a watch Handler.
func NewHandler(hub *broadcast.Hub, identities auth.Provider, logger *zap.Logger) *Handler {
	return &Handler{
		hub:        hub,
		identities: identities,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/watch/:id", h.watch)
}

func (h *Handler) watch(c echo.Context) error {
	b := response.New(c)

	itemID := c.Param("id")
	if _, err := uuid.Parse(itemID); err != nil {
		return b.WithError(errorbank.BadRequest("invalid item id", errorbank.WithCause(err))).Build()
	}

	watcherID := c.Request().Header.Get("X-User-ID")
	if watcherID == "" {
		return b.WithError(errorbank.BadRequest("missing X-User-ID header")).Build()
	}

	identity, err := h.identities.Resolve(c.Request().Context(), watcherID)
	if err != nil {
		identity = auth.Identity{ID: watcherID, Name: watcherID}
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		return nil
	}

	sub := h.hub.Subscribe(itemID, identity.Name)
	h.logger.Info("watcher connected", zap.String("item_id", itemID), zap.String("watcher", identity.Name))

	closed := make(chan struct{})
	go h.readPump(conn, closed)
	h.writePump(conn, sub, closed)

	h.hub.Unsubscribe(sub)
	_ = conn.Close()
	h.logger.Info("watcher disconnected", zap.String("item_id", itemID), zap.String("watcher", identity.Name))
	return nil
}

// readPump drains inbound frames so pongs are processed and the close
// handshake is observed.
func (h *Handler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("watch read failed", zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards hub events to the connection and keeps it alive with
// pings. Returns when the subscription channel closes or the peer goes away.
func (h *Handler) writePump(conn *websocket.Conn, sub *broadcast.Subscription, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
