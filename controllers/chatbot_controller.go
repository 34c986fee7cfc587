package controllers

import (
	"errors"
	"net/http"

	"delivery-support-chatbot/models"
	"delivery-support-chatbot/services"

	"github.com/gin-gonic/gin"
)

type ChatbotController struct {
	chatbotService *services.ChatbotService
}

func NewChatbotController(chatbotService *services.ChatbotService) *ChatbotController {
	return &ChatbotController{
		chatbotService: chatbotService,
	}
}

// HandleChat processes chat messages
func (cc *ChatbotController) HandleChat(c *gin.Context) {
	var req models.ChatRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	// The client picks session_id, so the limit follows the caller's address.
	req.ClientKey = c.ClientIP()
	if req.SessionID == "" {
		req.SessionID = req.ClientKey
	}

	response, err := cc.chatbotService.ProcessMessage(c.Request.Context(), req)
	if errors.Is(err, services.ErrRateLimited) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process message",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Classify shows which intent and keyword a message hits, without replying.
func (cc *ChatbotController) Classify(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	intent, keyword, ok := cc.chatbotService.Classify(req.Message)
	c.JSON(http.StatusOK, gin.H{
		"matched": ok,
		"intent":  intent,
		"keyword": keyword,
	})
}

// GetSupportedIntents returns list of supported intents
func (cc *ChatbotController) GetSupportedIntents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"intents": cc.chatbotService.SupportedIntents(),
	})
}

// GetMenu returns the numbered help topics.
func (cc *ChatbotController) GetMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"topics": cc.chatbotService.Menu(),
	})
}

// GetChatAnalytics returns reply counts per intent
func (cc *ChatbotController) GetChatAnalytics(c *gin.Context) {
	counts, err := cc.chatbotService.Analytics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve analytics",
		})
		return
	}

	var total int64
	for _, row := range counts {
		total += row.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"intents": counts,
		"total":   total,
	})
}
