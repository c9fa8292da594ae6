package handler

import (
	"net/http"

	"civicbot/backend/internal/feed"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Accepts any origin; restrict behind a proxy in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and subscribes it to the live
// complaint event feed.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	if len(h.Secret) == 0 {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "API auth is not configured"})
		return
	}
	if _, err := h.validateToken(bearerToken(c)); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade connection"})
		return
	}

	client := feed.NewClient(h.Hub, conn)
	h.Hub.RegisterCh <- client
	client.Run()
}
