package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"delivery-support-chatbot/config"
	"delivery-support-chatbot/models"

	"go.uber.org/zap"
)

// WhatsAppService sends replies through the WhatsApp Cloud API.
type WhatsAppService struct {
	apiURL        string
	apiVersion    string
	accessToken   string
	phoneNumberID string
	verifyToken   string
	httpClient    *http.Client
	logger        *zap.Logger

	// Status tracking
	statusMu        sync.RWMutex
	lastMessageTime time.Time
	dailyCount      map[string]int
}

func NewWhatsAppService(cfg config.WhatsAppConfig, logger *zap.Logger) *WhatsAppService {
	return &WhatsAppService{
		apiURL:        "https://graph.facebook.com",
		apiVersion:    cfg.APIVersion,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		verifyToken:   cfg.VerifyToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     logger,
		dailyCount: make(map[string]int),
	}
}

// WithBaseURL points the service at another Graph API host.
func (ws *WhatsAppService) WithBaseURL(url string) *WhatsAppService {
	ws.apiURL = strings.TrimRight(url, "/")
	return ws
}

// GetVerifyToken returns the webhook verification token
func (ws *WhatsAppService) GetVerifyToken() string {
	return ws.verifyToken
}

// SendTextMessage sends a simple text message
func (ws *WhatsAppService) SendTextMessage(ctx context.Context, to string, message string) error {
	payload := models.WhatsAppSendMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               ws.CleanPhoneNumber(to),
		Type:             "text",
		Text: &models.WhatsAppText{
			Body: message,
		},
	}

	if err := ws.sendRequest(ctx, payload); err != nil {
		return err
	}
	ws.updateMessageStatus()
	return nil
}

// MarkMessageAsRead marks a message as read
func (ws *WhatsAppService) MarkMessageAsRead(ctx context.Context, messageID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}

	return ws.sendRequest(ctx, payload)
}

func (ws *WhatsAppService) sendRequest(ctx context.Context, payload interface{}) error {
	url := fmt.Sprintf("%s/%s/%s/messages", ws.apiURL, ws.apiVersion, ws.phoneNumberID)

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+ws.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		ws.logger.Warn("whatsapp api error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("WhatsApp API error: status %d", resp.StatusCode)
	}

	return nil
}

// CleanPhoneNumber strips formatting and adds the Indian country code to bare
// ten-digit numbers.
func (ws *WhatsAppService) CleanPhoneNumber(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	if len(cleaned) == 10 {
		cleaned = "91" + cleaned
	}

	return cleaned
}

func (ws *WhatsAppService) updateMessageStatus() {
	ws.statusMu.Lock()
	defer ws.statusMu.Unlock()

	ws.lastMessageTime = time.Now()
	ws.dailyCount[ws.lastMessageTime.Format("2006-01-02")]++
}

// GetStatus returns the service status
func (ws *WhatsAppService) GetStatus() models.WhatsAppServiceStatus {
	ws.statusMu.RLock()
	defer ws.statusMu.RUnlock()

	return models.WhatsAppServiceStatus{
		Enabled:           ws.accessToken != "" && ws.phoneNumberID != "",
		LastMessageSent:   ws.lastMessageTime,
		MessageCountToday: ws.dailyCount[time.Now().Format("2006-01-02")],
	}
}
