package controllers

import (
	"errors"
	"net/http"

	"delivery-support-chatbot/models"
	"delivery-support-chatbot/services"

	"github.com/gin-gonic/gin"
)

// SessionController exposes conversation sessions over plain HTTP for clients
// that poll the transcript instead of holding a websocket.
type SessionController struct {
	sessions       *services.SessionManager
	chatbotService *services.ChatbotService
}

func NewSessionController(sessions *services.SessionManager, chatbotService *services.ChatbotService) *SessionController {
	return &SessionController{
		sessions:       sessions,
		chatbotService: chatbotService,
	}
}

// CreateSession opens a session seeded with the greeting.
func (sc *SessionController) CreateSession(c *gin.Context) {
	session, _ := sc.sessions.Open("")
	c.JSON(http.StatusCreated, transcriptOf(session))
}

// GetTranscript returns the messages so far and whether a reply is pending.
func (sc *SessionController) GetTranscript(c *gin.Context) {
	session, err := sc.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, transcriptOf(session))
}

// SendMessage appends a user message; the reply shows up in the transcript
// after the typing delay.
func (sc *SessionController) SendMessage(c *gin.Context) {
	session, err := sc.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := sc.chatbotService.Allow(c.Request.Context(), models.ChannelWeb, c.ClientIP()); err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		return
	}

	msg, err := session.Submit(req.Message)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrSessionClosed):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": msg,
		"state":   session.State(),
	})
}

// CloseSession tears the session down, cancelling any pending reply.
func (sc *SessionController) CloseSession(c *gin.Context) {
	if err := sc.sessions.Close(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func transcriptOf(session *services.ConversationSession) models.TranscriptResponse {
	return models.TranscriptResponse{
		SessionID: session.ID(),
		State:     session.State(),
		Messages:  session.Transcript(),
	}
}
