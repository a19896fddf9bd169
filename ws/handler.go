package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ignation/worldcourse-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST API
	},
}

// HandleUserWebSocket opens the notification socket of the user in ?token=.
func HandleUserWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing token"})
		return
	}
	claims, err := utils.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid or expired token"})
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}
	client := H.RegisterUser(userID, conn)
	defer H.UnregisterUser(userID, conn)
	log.Debug().Str("user_id", userID).Msg("notification socket connected")

	hello, _ := json.Marshal(Event{Type: "connected"})
	client.Send <- hello

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	log.Debug().Str("user_id", userID).Msg("notification socket disconnected")
}
