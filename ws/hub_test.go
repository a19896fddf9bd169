package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignation/worldcourse-backend/utils"
)

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestUserSocket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleUserWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, resp, err := dial(t, srv, "bad")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	userID := "0b7c9f7e-1f2a-4c1e-8f43-3e2d8a6f9b10"
	token, err := utils.GenerateToken(userID, "student")
	require.NoError(t, err)

	conn, _, err := dial(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", readEvent(t, conn)["type"])
	assert.Equal(t, 1, H.GetStats()["connections"])

	SendBadgeUpdate(userID, 4)
	badge := readEvent(t, conn)
	assert.Equal(t, "badge_update", badge["type"])
	assert.EqualValues(t, 4, badge["unread_count"])

	SendEvent(userID, "submission_graded", map[string]interface{}{"percentage": 80})
	ev := readEvent(t, conn)
	assert.Equal(t, "submission_graded", ev["type"])
	assert.EqualValues(t, 80, ev["payload"].(map[string]interface{})["percentage"])

	assert.Zero(t, H.SendToUser("someone-else", []byte(`{}`)))

	conn.Close()
	assert.Eventually(t, func() bool { return H.GetStats()["connections"] == 0 }, 2*time.Second, 20*time.Millisecond)
}
