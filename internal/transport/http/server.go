package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "hr-assistant/internal/app"
	"hr-assistant/internal/bootstrap"
	"hr-assistant/internal/repository"
	"hr-assistant/internal/transport/http/handler"
	"hr-assistant/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.StaticFile("/", "web/index.html")
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)

	// A nil concrete publisher must stay a nil interface.
	var events appsvc.EventPublisher
	if app.Publisher != nil {
		events = app.Publisher
	}

	authService := appsvc.NewAuthService(
		userRepo,
		app.SessionStore,
		app.Mailer,
		events,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
		app.Config.App.BaseURL,
	)
	chatService := appsvc.NewChatService(app.History, app.Engine)
	analyzeService := appsvc.NewAnalyzeService(app.ModelClient)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	analyzeHandler := handler.NewAnalyzeHandler(analyzeService)
	auditHandler := handler.NewAuditHandler(repository.NewAuthEventRepository(app.DB))

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/session", authHandler.StartSession)
	authGroup.GET("/session/:id", authHandler.GetSession)
	authGroup.POST("/navigate", authHandler.Navigate)
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/signin", authHandler.SignIn)
	authGroup.POST("/otp", authHandler.VerifyOTP)
	authGroup.POST("/forgot", authHandler.Forgot)
	authGroup.POST("/reset/begin", authHandler.BeginReset)
	authGroup.POST("/reset", authHandler.CompleteReset)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret, authService))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/events", auditHandler.ListEvents)
	authed.POST("/chat/sessions", chatHandler.CreateSession)
	authed.POST("/chat/messages", chatHandler.SendMessage)
	authed.GET("/chat/history", chatHandler.GetHistory)
	authed.POST("/documents/analyze", analyzeHandler.Analyze)

	return router
}
