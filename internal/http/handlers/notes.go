package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careline-be/internal/models"
	"careline-be/internal/scribe"
	"careline-be/internal/store"
)

type NotesHandler struct {
	Store  *store.Store
	Scribe *scribe.Client
}

// GetNote returns the clinical note for a chat id (or "global_scribe").
func (h *NotesHandler) GetNote(c *gin.Context) {
	note, ok := h.Store.Note(c.Param("chatId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no note for chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": note})
}

func (h *NotesHandler) ListTemplates(c *gin.Context) {
	out := make([]models.Template, 0, len(models.Templates))
	for _, t := range models.Templates {
		out = append(out, t)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

type updateSectionReq struct {
	SectionID string `json:"section_id" binding:"required"`
	Text      string `json:"text"`
}

func (h *NotesHandler) UpdateSection(c *gin.Context) {
	var req updateSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.UpdateClinicalNote(c.Param("chatId"), req.SectionID, req.Text)
	c.Status(http.StatusNoContent)
}

type setTemplateReq struct {
	TemplateType string `json:"template_type" binding:"required"`
}

func (h *NotesHandler) SetTemplate(c *gin.Context) {
	var req setTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.SetNoteTemplate(c.Param("chatId"), req.TemplateType)
	c.Status(http.StatusNoContent)
}

type noteDetailsReq struct {
	PatientID        *string `json:"patient_id"`
	ConsultationType *string `json:"consultation_type"`
	VisitReason      *string `json:"visit_reason"`
}

func (h *NotesHandler) UpdateDetails(c *gin.Context) {
	var req noteDetailsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.UpdateNoteDetails(c.Param("chatId"), store.NoteDetailsPatch{
		PatientID:        req.PatientID,
		ConsultationType: req.ConsultationType,
		VisitReason:      req.VisitReason,
	})
	c.Status(http.StatusNoContent)
}

type acceptSuggestionReq struct {
	EditedText string `json:"edited_text"`
}

func (h *NotesHandler) AcceptSuggestion(c *gin.Context) {
	var req acceptSuggestionReq
	// body optional: accepting without edits sends nothing
	_ = c.ShouldBindJSON(&req)
	h.Store.AcceptSuggestion(c.Param("chatId"), c.Param("suggestionId"), req.EditedText)
	c.Status(http.StatusNoContent)
}

func (h *NotesHandler) DismissSuggestion(c *gin.Context) {
	h.Store.DismissSuggestion(c.Param("chatId"), c.Param("suggestionId"))
	c.Status(http.StatusNoContent)
}

type analyzeReq struct {
	Text string `json:"text" binding:"required"`
}

// Analyze runs AI analysis over a drafted message. Suggestions land on the
// chat's note; the professional draft is returned to the caller. A nil
// analysis means the feature is unavailable this time, not an error.
func (h *NotesHandler) Analyze(c *gin.Context) {
	var req analyzeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	analysis := h.Scribe.AnalyzeMessage(c.Request.Context(), req.Text)
	if analysis == nil {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}

	h.Store.AddSuggestions(c.Param("chatId"), analysis.Suggestions)
	c.JSON(http.StatusOK, gin.H{
		"available":          true,
		"suggestions":        analysis.Suggestions,
		"professional_draft": analysis.ProfessionalDraft,
	})
}

type generateReq struct {
	TemplateType     string `json:"template_type"`
	ConsultationType string `json:"consultation_type"`
	VisitReason      string `json:"visit_reason"`
}

// Generate builds structured note content from the chat's message history.
func (h *NotesHandler) Generate(c *gin.Context) {
	chatID := c.Param("chatId")

	var req generateReq
	_ = c.ShouldBindJSON(&req)

	chat, ok := h.Store.Chat(chatID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "chat not found"})
		return
	}

	var lines []string
	for _, m := range chat.Messages {
		if m.Type == models.MessageText && m.DeletedAt == nil && m.Content != "" {
			lines = append(lines, m.Content)
		}
	}

	tplID := req.TemplateType
	if tplID == "" {
		tplID = h.Store.Preferences().DefaultTemplate
	}
	tpl := models.TemplateByID(tplID)

	sections := h.Scribe.GenerateStructuredNote(c.Request.Context(), lines, tpl, req.ConsultationType, req.VisitReason)
	if sections == nil {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}

	h.Store.SetNoteTemplate(chatID, tpl.ID)
	h.Store.SetNoteSections(chatID, sections, "")
	note, _ := h.Store.Note(chatID)
	c.JSON(http.StatusOK, gin.H{"available": true, "data": note})
}
