package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"delivery-support-chatbot/models"
	"delivery-support-chatbot/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TextSender delivers a reply to a WhatsApp user.
type TextSender interface {
	SendTextMessage(ctx context.Context, to string, message string) error
	MarkMessageAsRead(ctx context.Context, messageID string) error
	GetVerifyToken() string
	GetStatus() models.WhatsAppServiceStatus
}

type WhatsAppController struct {
	whatsappService TextSender
	chatbotService  *services.ChatbotService
	logger          *zap.Logger
}

func NewWhatsAppController(whatsappService TextSender, chatbotService *services.ChatbotService, logger *zap.Logger) *WhatsAppController {
	return &WhatsAppController{
		whatsappService: whatsappService,
		chatbotService:  chatbotService,
		logger:          logger,
	}
}

// VerifyWebhook handles the webhook verification request from WhatsApp
func (wc *WhatsAppController) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == wc.whatsappService.GetVerifyToken() {
		c.String(http.StatusOK, challenge)
		return
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "Verification failed"})
}

// HandleWebhook acknowledges immediately and answers the messages in the background.
func (wc *WhatsAppController) HandleWebhook(c *gin.Context) {
	var webhookData models.WhatsAppWebhookData

	if err := c.ShouldBindJSON(&webhookData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook data"})
		return
	}

	// The request context ends with this handler; replies get their own.
	go wc.processWebhookData(webhookData)

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// GetStatus reports outbound message counters.
func (wc *WhatsAppController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, wc.whatsappService.GetStatus())
}

func (wc *WhatsAppController) processWebhookData(webhookData models.WhatsAppWebhookData) {
	for _, entry := range webhookData.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, message := range change.Value.Messages {
				wc.handleIncomingMessage(message)
			}
			for _, status := range change.Value.Statuses {
				wc.handleStatusUpdate(status)
			}
		}
	}
}

func (wc *WhatsAppController) handleIncomingMessage(message models.WhatsAppMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log := wc.logger.With(zap.String("from", message.From), zap.String("type", message.Type))

	// Blue ticks before the reply; a failure here does not stop the answer.
	if err := wc.whatsappService.MarkMessageAsRead(ctx, message.ID); err != nil {
		log.Warn("failed to mark whatsapp message as read", zap.Error(err), zap.String("message_id", message.ID))
	}

	resp, err := wc.chatbotService.ProcessMessage(ctx, models.ChatRequest{
		Message:   message.Body(),
		SessionID: message.From,
		Channel:   models.ChannelWhatsApp,
	})
	if errors.Is(err, services.ErrRateLimited) {
		log.Info("whatsapp sender rate limited")
		return
	}
	if err != nil {
		log.Error("failed to process whatsapp message", zap.Error(err))
		return
	}

	if err := wc.whatsappService.SendTextMessage(ctx, message.From, resp.Response); err != nil {
		log.Error("failed to send whatsapp reply", zap.Error(err))
	}
}

func (wc *WhatsAppController) handleStatusUpdate(status models.WhatsAppStatus) {
	fields := []zap.Field{
		zap.String("message_id", status.ID),
		zap.String("recipient", status.RecipientID),
		zap.String("status", status.Status),
	}
	if len(status.Errors) > 0 {
		wc.logger.Warn("whatsapp delivery failed", append(fields, zap.Any("errors", status.Errors))...)
		return
	}
	wc.logger.Debug("whatsapp status update", fields...)
}
