package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexura/models"
	"nexura/utils"
)

func TestHubBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("ws-test-secret")

	hub := NewHub()
	r := gin.New()
	r.GET("/ws", hub.Handler(NewUpgrader(nil)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	token, err := utils.GenerateJWTToken("u1", utils.PrincipalUser)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello map[string]interface{}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello["type"])
	assert.Equal(t, 1, hub.Count())

	hub.Broadcast(models.GamificationEvent{Type: "xp_awarded", UserID: "u1", XP: 50})

	var ev models.GamificationEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "xp_awarded", ev.Type)
	assert.Equal(t, 50, ev.XP)
}

func TestHandlerRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("ws-test-secret")

	hub := NewHub()
	r := gin.New()
	r.GET("/ws", hub.Handler(NewUpgrader(nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, hub.Count())
}

func TestAttachQueuesWelcomeBeforeRegister(t *testing.T) {
	hub := NewHub()
	c := hub.attach(nil, "u1")
	assert.Equal(t, 1, hub.Count())

	// the welcome frame holds one slot, so a full buffer of events overflows
	for i := 0; i < sendBuffer; i++ {
		hub.Broadcast(models.GamificationEvent{Type: "xp_awarded", UserID: "u1"})
	}
	assert.Equal(t, 0, hub.Count())

	first, ok := <-c.send
	require.True(t, ok)
	assert.Equal(t, "connected", first.(gin.H)["type"])

	n := 0
	for range c.send {
		n++
	}
	assert.Equal(t, sendBuffer-1, n)
}
