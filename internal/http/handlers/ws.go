package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"nhooyr.io/websocket"

	"careline-be/internal/ws"
)

type WSHandler struct {
	Hub                  *ws.Hub
	JWTSecret            string
	WSInsecureSkipVerify bool
}

func (h *WSHandler) Handle(c *gin.Context) {
	// browsers can't set Authorization on native WebSocket, token rides a
	// query param instead
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}

	userID, err := parseUserIDFromJWT(tokenStr, h.JWTSecret)
	if err != nil || userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	opts := &websocket.AcceptOptions{}
	// Accept rejects cross-origin by default; skip verification only for
	// local dev against a separately served frontend.
	if h.WSInsecureSkipVerify {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return // Accept already wrote the error response
	}

	// push-only connection: reading is needed anyway so control frames
	// (close/ping/pong) get processed
	conn.CloseRead(c.Request.Context())

	client := h.Hub.AddClient(userID, conn)
	defer h.Hub.RemoveClient(client)

	<-c.Request.Context().Done()
}

func parseUserIDFromJWT(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", err
	}

	if v, ok := claims["user_id"].(string); ok {
		return v, nil
	}
	return "", err
}
