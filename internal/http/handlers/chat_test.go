package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careline-be/internal/http/handlers"
	"careline-be/internal/models"
	"careline-be/internal/store"
	"careline-be/internal/ws"
)

func newRouter(t *testing.T, userID string) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.New(nil, nil)
	st.UpsertUser(models.User{ID: "u1", Name: "Dr. Chen", Role: models.RoleDoctor})
	st.UpsertUser(models.User{ID: "u2", Name: "Nina Okafor", Role: models.RoleNurse})

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", userID) })

	h := &handlers.ChatHandler{Store: st, Hub: ws.NewHub()}
	r.GET("/chats", h.ListChats)
	r.POST("/chats/direct", h.CreateDirect)
	r.POST("/chats/dial", h.Dial)
	r.POST("/chats/group", h.CreateGroup)
	r.GET("/chats/:id/messages", h.ListMessages)
	r.POST("/chats/:id/messages", h.SendMessage)
	r.DELETE("/chats/:id/messages/:mid", h.DeleteMessage)

	return r, st
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateDirectDeduplicates(t *testing.T) {
	r, _ := newRouter(t, "u1")

	w := doJSON(t, r, http.MethodPost, "/chats/direct", gin.H{"other_user_id": "u2"})
	require.Equal(t, http.StatusCreated, w.Code)

	var first struct {
		ChatID string `json:"chat_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = doJSON(t, r, http.MethodPost, "/chats/direct", gin.H{"other_user_id": "u2"})
	require.Equal(t, http.StatusOK, w.Code)

	var second struct {
		ChatID   string `json:"chat_id"`
		Existing bool   `json:"existing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.ChatID, second.ChatID)
	assert.True(t, second.Existing)
}

func TestDialDoesNotDeduplicate(t *testing.T) {
	r, st := newRouter(t, "u1")

	w1 := doJSON(t, r, http.MethodPost, "/chats/dial", gin.H{"identifier": "+15551234567"})
	w2 := doJSON(t, r, http.MethodPost, "/chats/dial", gin.H{"identifier": "+15551234567"})
	require.Equal(t, http.StatusCreated, w1.Code)
	require.Equal(t, http.StatusCreated, w2.Code)

	assert.Len(t, st.Chats("u1"), 2)
}

func TestCreateGroupValidatesMinimumMembers(t *testing.T) {
	r, _ := newRouter(t, "u1")

	w := doJSON(t, r, http.MethodPost, "/chats/group", gin.H{
		"name":            "Care Team A",
		"type":            "care_team",
		"participant_ids": []string{"u2"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/chats/group", gin.H{
		"type":            "care_team",
		"participant_ids": []string{"u2", "u1"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendAndListMessages(t *testing.T) {
	r, st := newRouter(t, "u1")
	chatID := st.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})

	w := doJSON(t, r, http.MethodPost, "/chats/"+chatID+"/messages", gin.H{"content": "hello team"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/chats/"+chatID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Message `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "hello team", resp.Data[0].Content)
}

func TestSendMessageUnknownChatReturns404(t *testing.T) {
	r, _ := newRouter(t, "u1")
	w := doJSON(t, r, http.MethodPost, "/chats/ghost/messages", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteMessageSoftDeletes(t *testing.T) {
	r, st := newRouter(t, "u1")
	chatID := st.CreateGroupChat("u1", "Care Team A", models.ChatCareTeam, []string{"u2"})
	msgID := st.SendMessage(chatID, store.Draft{SenderID: "u1", Content: "oops"})

	w := doJSON(t, r, http.MethodDelete, "/chats/"+chatID+"/messages/"+msgID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	chat, _ := st.Chat(chatID)
	require.Len(t, chat.Messages, 1)
	assert.Empty(t, chat.Messages[0].Content)
	assert.NotNil(t, chat.Messages[0].DeletedAt)
}
