package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"careline-be/internal/config"
	"careline-be/internal/database"
	"careline-be/internal/http/handlers"
	"careline-be/internal/http/middleware"
	"careline-be/internal/metrics"
	"careline-be/internal/models"
	"careline-be/internal/scribe"
	"careline-be/internal/storage"
	"careline-be/internal/store"
	"careline-be/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.DBDSN == "" || cfg.JWTSecret == "" {
		log.Fatal("DB_DSN and JWT_SECRET must be set")
	}

	db, err := database.ConnectMySQL(cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to db")
	}

	if err := db.AutoMigrate(&models.Account{}); err != nil {
		log.WithError(err).Fatal("failed to migrate")
	}

	kv, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("failed to open local store")
	}
	defer kv.Close()

	ai := scribe.New(cfg.OpenAIBaseURL, cfg.OpenAIModel)
	st := store.New(ai, kv)
	seedDirectory(db, st)

	hub := ws.NewHub()
	st.Subscribe(func(ev store.Event) {
		hub.BroadcastToUsers(ev.UserIDs, ws.Event{Type: string(ev.Type), Data: ev})
	})

	r := gin.Default()

	// Auth
	authH := &handlers.AuthHandler{DB: db, Store: st, JWTSecret: cfg.JWTSecret}
	r.POST("/api/v1/auth/register", authH.Register)
	r.POST("/api/v1/auth/login", authH.Login)

	// WebSocket endpoint
	wsH := &handlers.WSHandler{
		Hub:                  hub,
		JWTSecret:            cfg.JWTSecret,
		WSInsecureSkipVerify: cfg.WSInsecureSkipVerify,
	}
	r.GET("/ws", wsH.Handle)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Protected routes
	authed := r.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	chatH := &handlers.ChatHandler{Store: st, Hub: hub, Scribe: ai}
	authed.GET("/users", chatH.ListUsers)
	authed.PUT("/users/me", chatH.UpdateMe)
	authed.GET("/chats", chatH.ListChats)
	authed.GET("/chats/:id", chatH.GetChat)
	authed.POST("/chats/direct", chatH.CreateDirect)
	authed.POST("/chats/dial", chatH.Dial)
	authed.POST("/chats/group", chatH.CreateGroup)
	authed.POST("/chats/:id/members", chatH.AddMembers)
	authed.DELETE("/chats/:id/members/:userId", chatH.RemoveMember)
	authed.POST("/chats/:id/leave", chatH.Leave)
	authed.POST("/chats/:id/pin", chatH.TogglePin)
	authed.POST("/chats/:id/mute", chatH.ToggleMute)
	authed.POST("/chats/:id/patient-notes", chatH.TogglePatientNotes)
	authed.GET("/chats/:id/messages", chatH.ListMessages)
	authed.POST("/chats/:id/messages", chatH.SendMessage)
	authed.DELETE("/chats/:id/messages/:mid", chatH.DeleteMessage)
	authed.POST("/chats/:id/messages/:mid/transcribe", chatH.Transcribe)
	authed.POST("/chats/:id/read", chatH.MarkRead)
	authed.POST("/chats/:id/typing", chatH.Typing)

	notesH := &handlers.NotesHandler{Store: st, Scribe: ai}
	authed.GET("/notes/templates", notesH.ListTemplates)
	authed.GET("/notes/:chatId", notesH.GetNote)
	authed.PUT("/notes/:chatId/sections", notesH.UpdateSection)
	authed.PUT("/notes/:chatId/template", notesH.SetTemplate)
	authed.PUT("/notes/:chatId/details", notesH.UpdateDetails)
	authed.POST("/notes/:chatId/suggestions/:suggestionId/accept", notesH.AcceptSuggestion)
	authed.POST("/notes/:chatId/suggestions/:suggestionId/dismiss", notesH.DismissSuggestion)
	authed.POST("/notes/:chatId/analyze", notesH.Analyze)
	authed.POST("/notes/:chatId/generate", notesH.Generate)

	callsH := &handlers.CallsHandler{Store: st}
	authed.POST("/calls", callsH.Start)
	authed.GET("/calls/active", callsH.Active)
	authed.POST("/calls/transcript", callsH.AppendTranscript)
	authed.POST("/calls/end", callsH.End)

	patientsH := &handlers.PatientsHandler{Store: st}
	authed.POST("/patients", patientsH.Create)
	authed.GET("/patients", patientsH.List)
	authed.GET("/patients/:id", patientsH.Get)
	authed.POST("/patients/:id/vitals", patientsH.AddVitals)

	scheduleH := &handlers.ScheduleHandler{Store: st}
	authed.POST("/schedule", scheduleH.Create)
	authed.GET("/schedule", scheduleH.List)
	authed.POST("/schedule/:id/export", scheduleH.Export)
	authed.GET("/preferences", scheduleH.GetPreferences)
	authed.PUT("/preferences", scheduleH.UpdatePreferences)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("listening")
	log.Fatal(r.Run(addr))
}

// seedDirectory loads registered accounts into the in-memory directory so
// chats can reference users from previous runs.
func seedDirectory(db *gorm.DB, st *store.Store) {
	var accounts []models.Account
	if err := db.Find(&accounts).Error; err != nil {
		log.WithError(err).Warn("failed to load accounts into directory")
		return
	}
	for _, a := range accounts {
		st.UpsertUser(models.User{
			ID:    a.UserID,
			Name:  a.Name,
			Role:  models.Role(a.Role),
			Title: a.Title,
			Phone: a.Phone,
		})
	}
	log.WithField("users", len(accounts)).Info("directory seeded")
}
