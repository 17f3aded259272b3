package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nexura/pkg/log"
	"nexura/utils"
)

// NewUpgrader accepts browser origins from the allow list; an empty list
// accepts any origin
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, o := range allowedOrigins {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}

// attach queues the welcome frame and then registers the client. Once
// registered, Broadcast may close send at any time.
func (h *Hub) attach(conn *websocket.Conn, userID string) *Client {
	client := &Client{conn: conn, UserID: userID, send: make(chan interface{}, sendBuffer)}
	client.send <- gin.H{
		"type":    "connected",
		"message": "Connected to gamification updates",
		"userId":  userID,
	}
	h.register(client)
	return client
}

// Handler upgrades authenticated users to a gamification stream. Browsers
// cannot set headers on websocket requests so ?token= is accepted too.
func (h *Hub) Handler(upgrader websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string
		if parts := strings.Split(c.GetHeader("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := utils.ParseJWTToken(tokenString)
		if err != nil || claims.Status != utils.PrincipalUser {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warnf("WebSocket upgrade error: %v", err)
			return
		}

		client := h.attach(conn, claims.ID)
		go client.writePump()
		client.readPump(h)
	}
}
