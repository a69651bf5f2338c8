package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careline-be/internal/models"
	"careline-be/internal/store"
)

type PatientsHandler struct {
	Store *store.Store
}

type createPatientReq struct {
	UserID      string   `json:"user_id" binding:"required"`
	DOB         string   `json:"dob" binding:"required"`
	Address     string   `json:"address"`
	Diagnosis   []string `json:"diagnosis"`
	Medications []string `json:"medications"`
	Allergies   []string `json:"allergies"`
}

func (h *PatientsHandler) Create(c *gin.Context) {
	var req createPatientReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	if _, ok := h.Store.User(req.UserID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown user"})
		return
	}

	p := h.Store.AddPatient(store.NewPatient{
		UserID:      req.UserID,
		DOB:         req.DOB,
		Address:     req.Address,
		Diagnosis:   req.Diagnosis,
		Medications: req.Medications,
		Allergies:   req.Allergies,
	})
	c.JSON(http.StatusCreated, gin.H{"data": p})
}

func (h *PatientsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.Store.Patients()})
}

func (h *PatientsHandler) Get(c *gin.Context) {
	p, ok := h.Store.Patient(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "patient not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

type vitalsReq struct {
	SystolicBP  int     `json:"systolic_bp"`
	DiastolicBP int     `json:"diastolic_bp"`
	PulseRate   int     `json:"pulse_rate"`
	Temperature float64 `json:"temperature"`
}

func (h *PatientsHandler) AddVitals(c *gin.Context) {
	var req vitalsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}
	h.Store.AddVitals(c.Param("id"), models.VitalsEntry{
		SystolicBP:  req.SystolicBP,
		DiastolicBP: req.DiastolicBP,
		PulseRate:   req.PulseRate,
		Temperature: req.Temperature,
	})
	c.Status(http.StatusNoContent)
}
