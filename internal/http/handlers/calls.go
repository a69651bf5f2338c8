package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careline-be/internal/http/middleware"
	"careline-be/internal/models"
	"careline-be/internal/store"
)

type CallsHandler struct {
	Store *store.Store
}

type startCallReq struct {
	ChatID string `json:"chat_id"`
	Type   string `json:"type" binding:"required,oneof=voice video"`
}

func (h *CallsHandler) Start(c *gin.Context) {
	userID := middleware.MustUserID(c)

	var req startCallReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	session, ok := h.Store.StartCall(userID, req.ChatID, models.CallType(req.Type))
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"message": "a call is already active"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": session})
}

func (h *CallsHandler) Active(c *gin.Context) {
	session, ok := h.Store.ActiveCall()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no active call"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": session})
}

type transcriptReq struct {
	Line string `json:"line" binding:"required"`
}

func (h *CallsHandler) AppendTranscript(c *gin.Context) {
	var req transcriptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.AppendTranscript(req.Line)
	c.Status(http.StatusNoContent)
}

// End tears the call down. Teardown never blocks on the AI boundary: a
// failed summarization degrades to the fallback summary and the call state
// is cleared regardless.
func (h *CallsHandler) End(c *gin.Context) {
	msgID := h.Store.EndCall(c.Request.Context())
	if msgID == "" {
		c.JSON(http.StatusOK, gin.H{"message": "call ended"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "call ended", "call_log_message_id": msgID})
}
