package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-support-chatbot/config"
	"delivery-support-chatbot/database"
	"delivery-support-chatbot/logger"
	"delivery-support-chatbot/middleware"
	"delivery-support-chatbot/routes"
	"delivery-support-chatbot/services"
	"delivery-support-chatbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}
	cfg := config.Get()

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer log.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Panics on a malformed intent table, before anything is served.
	taxonomy := utils.DefaultTaxonomy()
	shortcuts := utils.DefaultMenuShortcuts()

	if err := database.Connect(cfg, log); err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Disconnect(log)

	seed := cfg.Chat.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	responder := services.NewResponder(utils.NewIntentClassifier(taxonomy), shortcuts, services.NewSeededSource(seed), log)

	var limiter services.RateLimiter = services.NoopRateLimiter{}
	if rdb := database.GetRedis(); rdb != nil {
		limiter = services.NewRedisRateLimiter(rdb, cfg.RateLimit.PerWindow, cfg.RateLimit.Window)
	}

	var analytics services.AnalyticsRecorder = services.NoopAnalytics{}
	if db := database.GetMongoDB(); db != nil {
		analytics = services.NewMongoAnalytics(db)
	}

	chatbotService := services.NewChatbotService(responder, shortcuts, taxonomy, limiter, analytics, log)

	sessionManager := services.NewSessionManager(chatbotService.ReplierFor, services.SessionOptions{
		TypingDelay: cfg.Chat.TypingDelay,
		Greeting:    services.GreetingMessage(shortcuts),
	}, cfg.Chat.SessionTTL, log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	sessionManager.StartCleanup(ctx, cfg.Chat.CleanupInterval)

	deps := routes.Dependencies{
		ChatbotService:   chatbotService,
		SessionManager:   sessionManager,
		WhatsAppSecret:   cfg.WhatsApp.AppSecret,
		AllowedOrigins:   cfg.AllowedOrigins,
		AnalyticsEnabled: cfg.AnalyticsEnabled(),
		Logger:           log,
	}
	if cfg.WhatsAppEnabled() {
		deps.WhatsAppService = services.NewWhatsAppService(cfg.WhatsApp, log)
		log.Info("WhatsApp bridge enabled")
	} else {
		log.Warn("WhatsApp bridge disabled: access token, phone number ID or verify token missing")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"timestamp":       time.Now(),
			"active_sessions": sessionManager.Count(),
			"stores":          database.HealthCheck(c.Request.Context()),
		})
	})

	routes.SetupRoutes(router, deps)

	for _, route := range router.Routes() {
		log.Debug("route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Pending reply timers are cancelled here; no transcript is touched afterwards.
	sessionManager.CloseAll()

	log.Info("server exited")
}
