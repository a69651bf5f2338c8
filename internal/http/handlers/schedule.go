package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careline-be/internal/calendar"
	"careline-be/internal/models"
	"careline-be/internal/store"
)

type ScheduleHandler struct {
	Store *store.Store
}

type createScheduleReq struct {
	Title     string    `json:"title" binding:"required"`
	Start     time.Time `json:"start" binding:"required"`
	End       time.Time `json:"end" binding:"required"`
	Details   string    `json:"details"`
	Location  string    `json:"location"`
	PatientID string    `json:"patient_id"`
}

func (h *ScheduleHandler) Create(c *gin.Context) {
	var req createScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	id := h.Store.AddScheduleItem(models.ScheduleItem{
		Title:     req.Title,
		Start:     req.Start,
		End:       req.End,
		Details:   req.Details,
		Location:  req.Location,
		PatientID: req.PatientID,
	})
	c.JSON(http.StatusCreated, gin.H{"schedule_id": id})
}

func (h *ScheduleHandler) List(c *gin.Context) {
	items := h.Store.ScheduleItems()
	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, gin.H{
			"item":     it,
			"exported": h.Store.ExportedToCalendar(it.ID),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// Export builds the external calendar deep link for a schedule item and
// records the id as exported (the recorded set is persisted locally).
func (h *ScheduleHandler) Export(c *gin.Context) {
	item, ok := h.Store.ScheduleItem(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "schedule item not found"})
		return
	}

	url := calendar.EventURL(item)
	h.Store.MarkExportedToCalendar(item.ID)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *ScheduleHandler) GetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.Store.Preferences()})
}

type updatePrefsReq struct {
	DefaultTemplate   *string   `json:"default_template"`
	FavoriteTemplates *[]string `json:"favorite_templates"`
	AutoScribe        *bool     `json:"auto_scribe"`
}

func (h *ScheduleHandler) UpdatePreferences(c *gin.Context) {
	var req updatePrefsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.UpdatePreferences(store.PreferencesPatch{
		DefaultTemplate:   req.DefaultTemplate,
		FavoriteTemplates: req.FavoriteTemplates,
		AutoScribe:        req.AutoScribe,
	})
	c.JSON(http.StatusOK, gin.H{"data": h.Store.Preferences()})
}
