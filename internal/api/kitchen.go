package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"snackzinabi/internal/kitchen"
)

// Upgrader for kitchen display connections. Displays run on the local
// network, so all origins are accepted.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// KitchenWebSocket upgrades a kitchen display connection and registers it
// for order pushes. The connection stays until the display goes away; it
// receives the orders committed while it is connected, nothing older.
func (s *Server) KitchenWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("kitchen websocket upgrade failed")
		return
	}

	kitchen.NewWSConn(ws, s.hub, s.log)
}

// ListCommandes returns committed orders for the kitchen dashboard,
// newest first. ?limit=N caps the page.
func (s *Server) ListCommandes(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	commandes, err := s.orders.List(c.Request.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("list commandes failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, commandes)
}
