package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rise171/system-control-defects/internal/middleware"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// wsClient implements realtime.Client over a websocket connection. Writes are
// serialized because the hub and the ping loop both send.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (c *wsClient) Send(message []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- message:
		return true
	default:
		// slow reader; drop rather than block the publisher
		return false
	}
}

func (c *wsClient) Close() {
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origins are checked by the CORS middleware
		return true
	},
}

// WebSocket handles GET /ws. The caller must already be authenticated; events
// for defects the user has a stake in are pushed as JSON text frames.
func (h *Handler) WebSocket(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			"event", "ws_upgrade_failed",
			"module", "http",
			"layer", "handler",
			"user_id", user.ID,
			"error", err.Error(),
		)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 16), done: make(chan struct{})}
	h.hub.Register(user.ID, client)
	h.logger.Info("websocket connected",
		"event", "ws_connected",
		"module", "http",
		"layer", "handler",
		"user_id", user.ID,
		"connections", h.hub.Connected(user.ID),
	)
	defer func() {
		h.hub.Unregister(user.ID, client)
		close(client.done)
		client.Close()
	}()

	go client.writeLoop()

	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
