package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"careline-be/internal/models"
	"careline-be/internal/store"
)

type AuthHandler struct {
	DB        *gorm.DB
	Store     *store.Store
	JWTSecret string
}

type registerReq struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin doctor nurse patient family"`
	Title    string `json:"title"`
	Phone    string `json:"phone"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	role := req.Role
	if role == "" {
		role = string(models.RoleDoctor)
	}

	a := models.Account{
		UserID:       uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Title:        req.Title,
		Phone:        req.Phone,
	}

	if err := h.DB.Create(&a).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "failed create account", "error": err.Error()})
		return
	}

	h.Store.UpsertUser(directoryUser(a))

	c.JSON(http.StatusCreated, gin.H{
		"id":      a.ID,
		"user_id": a.UserID,
		"name":    a.Name,
		"email":   a.Email,
		"role":    a.Role,
	})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body", "error": err.Error()})
		return
	}

	var a models.Account
	if err := h.DB.Where("email = ?", req.Email).First(&a).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "wrong email/password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "wrong email/password"})
		return
	}

	// accounts created before the store was seeded still get a directory entry
	h.Store.UpsertUser(directoryUser(a))

	claims := jwt.MapClaims{
		"user_id": a.UserID,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, _ := token.SignedString([]byte(h.JWTSecret))

	c.JSON(http.StatusOK, gin.H{
		"access_token": tokenStr,
		"user": gin.H{
			"id":    a.UserID,
			"name":  a.Name,
			"email": a.Email,
			"role":  a.Role,
		},
	})
}

func directoryUser(a models.Account) models.User {
	return models.User{
		ID:    a.UserID,
		Name:  a.Name,
		Role:  models.Role(a.Role),
		Title: a.Title,
		Phone: a.Phone,
	}
}
