package routes

import (
	"net/http"

	"delivery-support-chatbot/controllers"
	"delivery-support-chatbot/middleware"
	"delivery-support-chatbot/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	ChatbotService   *services.ChatbotService
	SessionManager   *services.SessionManager
	WhatsAppService  controllers.TextSender // nil disables the WhatsApp routes
	WhatsAppSecret   string
	AllowedOrigins   []string
	AnalyticsEnabled bool
	Logger           *zap.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	chatbotController := controllers.NewChatbotController(deps.ChatbotService)
	sessionController := controllers.NewSessionController(deps.SessionManager, deps.ChatbotService)
	wsController := controllers.NewWebSocketController(deps.SessionManager, deps.ChatbotService, deps.AllowedOrigins, deps.Logger)

	public := router.Group("/api/v1")
	{
		public.POST("/chat", chatbotController.HandleChat)
		public.POST("/classify", chatbotController.Classify)
		public.GET("/intents", chatbotController.GetSupportedIntents)
		public.GET("/menu", chatbotController.GetMenu)

		public.POST("/sessions", sessionController.CreateSession)
		public.GET("/sessions/:id/messages", sessionController.GetTranscript)
		public.POST("/sessions/:id/messages", sessionController.SendMessage)
		public.DELETE("/sessions/:id", sessionController.CloseSession)

		// WebSocket for real-time chat
		public.GET("/ws", wsController.HandleWebSocket)

		if deps.AnalyticsEnabled {
			public.GET("/analytics/intents", chatbotController.GetChatAnalytics)
		}
	}

	if deps.WhatsAppService != nil {
		whatsappController := controllers.NewWhatsAppController(deps.WhatsAppService, deps.ChatbotService, deps.Logger)

		whatsapp := router.Group("/api/whatsapp")
		{
			// Webhook endpoints (no auth required for WhatsApp to call)
			whatsapp.GET("/webhook", whatsappController.VerifyWebhook)
			whatsapp.POST("/webhook", middleware.VerifyWhatsAppSignature(deps.WhatsAppSecret), whatsappController.HandleWebhook)
			whatsapp.GET("/status", whatsappController.GetStatus)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})
}
