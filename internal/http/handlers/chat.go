package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careline-be/internal/http/middleware"
	"careline-be/internal/models"
	"careline-be/internal/scribe"
	"careline-be/internal/store"
	"careline-be/internal/ws"
)

type ChatHandler struct {
	Store  *store.Store
	Hub    *ws.Hub
	Scribe *scribe.Client
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := middleware.MustUserID(c)
	c.JSON(http.StatusOK, gin.H{"data": h.Store.Chats(userID)})
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	chat, ok := h.Store.Chat(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "chat not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": chat})
}

type createDirectReq struct {
	OtherUserID string `json:"other_user_id" binding:"required"`
}

// CreateDirect starts (or reuses) a direct chat with another user. Unlike
// Dial, this path deduplicates: an existing direct chat with the same
// participant is returned instead of creating a second one.
func (h *ChatHandler) CreateDirect(c *gin.Context) {
	userID := middleware.MustUserID(c)

	var req createDirectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	if id, ok := h.Store.FindDirectChat(userID, req.OtherUserID); ok {
		c.JSON(http.StatusOK, gin.H{"chat_id": id, "existing": true})
		return
	}

	id := h.Store.StartChat(userID, req.OtherUserID, false)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown contact"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat_id": id})
}

type dialReq struct {
	Identifier string `json:"identifier" binding:"required"`
	SMS        bool   `json:"sms"`
}

// Dial starts a chat from a manually entered phone number. No dedup:
// dialing the same number twice creates two independent chats.
func (h *ChatHandler) Dial(c *gin.Context) {
	userID := middleware.MustUserID(c)

	var req dialReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	id := h.Store.StartChat(userID, req.Identifier, req.SMS)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid identifier"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat_id": id})
}

type createGroupReq struct {
	Name           string   `json:"name" binding:"required"`
	Type           string   `json:"type" binding:"required,oneof=care_team family_update internal_staff broadcast"`
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=2"`
}

func (h *ChatHandler) CreateGroup(c *gin.Context) {
	userID := middleware.MustUserID(c)

	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	id := h.Store.CreateGroupChat(userID, req.Name, models.ChatType(req.Type), req.ParticipantIDs)
	c.JSON(http.StatusCreated, gin.H{"chat_id": id})
}

type memberReq struct {
	UserIDs []string `json:"user_ids" binding:"required,min=1"`
}

func (h *ChatHandler) AddMembers(c *gin.Context) {
	var req memberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.AddGroupMembers(c.Param("id"), req.UserIDs)
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) RemoveMember(c *gin.Context) {
	h.Store.RemoveGroupMember(c.Param("id"), c.Param("userId"))
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) Leave(c *gin.Context) {
	h.Store.LeaveGroup(c.Param("id"), middleware.MustUserID(c))
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) TogglePin(c *gin.Context) {
	h.Store.TogglePinChat(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) ToggleMute(c *gin.Context) {
	h.Store.ToggleMuteChat(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) TogglePatientNotes(c *gin.Context) {
	h.Store.TogglePatientNotes(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	chat, ok := h.Store.Chat(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "chat not found"})
		return
	}

	limit := 30
	if v := c.Query("limit"); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 && x <= 200 {
			limit = x
		}
	}

	msgs := chat.Messages
	if before := c.Query("before_id"); before != "" {
		for i, m := range msgs {
			if m.ID == before {
				msgs = msgs[:i]
				break
			}
		}
	}
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

type sendMessageReq struct {
	Content string            `json:"content"`
	Type    string            `json:"type" binding:"omitempty,oneof=text image voice file"`
	File    *models.FileMeta  `json:"file"`
	Voice   *models.VoiceMeta `json:"voice"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := middleware.MustUserID(c)
	chatID := c.Param("id")

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	mtype := models.MessageType(req.Type)
	if mtype == "" {
		mtype = models.MessageText
	}
	if mtype == models.MessageText && req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "content required"})
		return
	}

	msgID := h.Store.SendMessage(chatID, store.Draft{
		SenderID: userID,
		Content:  req.Content,
		Type:     mtype,
		File:     req.File,
		Voice:    req.Voice,
	})
	if msgID == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "chat not found"})
		return
	}

	if chat, ok := h.Store.Chat(chatID); ok {
		h.Hub.StopTyping(chatID, userID, chat.Participants)
	}

	c.JSON(http.StatusCreated, gin.H{"message_id": msgID})
}

func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	h.Store.DeleteMessage(c.Param("id"), c.Param("mid"))
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	h.Store.MarkRead(c.Param("id"), middleware.MustUserID(c))
	c.Status(http.StatusNoContent)
}

// Typing relays a typing indicator to the chat's other participants; the
// hub expires it on its own if not refreshed.
func (h *ChatHandler) Typing(c *gin.Context) {
	userID := middleware.MustUserID(c)
	chatID := c.Param("id")

	chat, ok := h.Store.Chat(chatID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "chat not found"})
		return
	}
	h.Hub.SetTyping(chatID, userID, chat.Participants)
	c.Status(http.StatusNoContent)
}

type transcribeReq struct {
	Audio string `json:"audio" binding:"required"`
}

// Transcribe kicks off transcription of a voice message. The transcribing
// flag flips immediately; the text lands later via a metadata update keyed
// by message id, so a slow model response applies safely even after the
// client moved on.
func (h *ChatHandler) Transcribe(c *gin.Context) {
	chatID := c.Param("id")
	msgID := c.Param("mid")

	var req transcribeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	on := true
	h.Store.UpdateMessageMetadata(chatID, msgID, store.MetadataPatch{
		Voice: store.VoicePatch{IsTranscribing: &on},
	})

	go func() {
		text := h.Scribe.TranscribeAudio(context.Background(), req.Audio)
		off := false
		h.Store.UpdateMessageMetadata(chatID, msgID, store.MetadataPatch{
			Voice: store.VoicePatch{IsTranscribing: &off, Transcription: &text},
		})
	}()

	c.Status(http.StatusAccepted)
}

func (h *ChatHandler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.Store.Users()})
}

type updateMeReq struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
	Title  *string `json:"title"`
	Phone  *string `json:"phone"`
}

func (h *ChatHandler) UpdateMe(c *gin.Context) {
	var req updateMeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.UpdateUser(middleware.MustUserID(c), store.UserPatch{
		Name:   req.Name,
		Avatar: req.Avatar,
		Title:  req.Title,
		Phone:  req.Phone,
	})
	c.Status(http.StatusNoContent)
}
