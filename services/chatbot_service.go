package services

import (
	"context"
	"errors"
	"time"

	"delivery-support-chatbot/models"
	"delivery-support-chatbot/utils"

	"go.uber.org/zap"
)

var ErrRateLimited = errors.New("too many messages, slow down")

const analyticsTimeout = 2 * time.Second

// ChatbotService wires the responder to the channels: rate limiting, analytics
// and the session factory all go through here.
type ChatbotService struct {
	responder *Responder
	shortcuts *utils.MenuShortcuts
	taxonomy  *utils.Taxonomy
	limiter   RateLimiter
	analytics AnalyticsRecorder
	logger    *zap.Logger
}

func NewChatbotService(responder *Responder, shortcuts *utils.MenuShortcuts, taxonomy *utils.Taxonomy, limiter RateLimiter, analytics AnalyticsRecorder, logger *zap.Logger) *ChatbotService {
	if limiter == nil {
		limiter = NoopRateLimiter{}
	}
	if analytics == nil {
		analytics = NoopAnalytics{}
	}
	return &ChatbotService{
		responder: responder,
		shortcuts: shortcuts,
		taxonomy:  taxonomy,
		limiter:   limiter,
		analytics: analytics,
		logger:    logger,
	}
}

// ProcessMessage answers a one-shot chat request. Any text, empty included,
// gets a reply; the only error is ErrRateLimited.
func (s *ChatbotService) ProcessMessage(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if req.Channel == "" {
		req.Channel = models.ChannelWeb
	}

	key := req.ClientKey
	if key == "" {
		key = req.SessionID
	}
	if err := s.Allow(ctx, req.Channel, key); err != nil {
		return nil, err
	}

	reply := s.responder.Reply(req.Message)
	s.record(ctx, req.SessionID, req.Channel, reply)

	if reply.Source == models.SourceFallback || reply.Intent == models.IntentGreeting {
		return models.NewInteractiveResponse(reply, s.MenuActions()), nil
	}
	return models.NewTextResponse(reply), nil
}

// Allow applies the rate limit for key on channel. Limiter failures are logged
// and the message is let through.
func (s *ChatbotService) Allow(ctx context.Context, channel models.MessageChannel, key string) error {
	if key == "" {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, string(channel)+":"+key)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", zap.Error(err))
	}
	if !ok {
		RateLimited.WithLabelValues(string(channel)).Inc()
		return ErrRateLimited
	}
	return nil
}

// ReplierFor returns the Replier a conversation session uses, recording each
// reply against sessionID.
func (s *ChatbotService) ReplierFor(sessionID string) Replier {
	return ReplierFunc(func(message string) string {
		reply := s.responder.Reply(message)
		s.record(context.Background(), sessionID, models.ChannelWeb, reply)
		return reply.Text
	})
}

// Reply answers without rate limiting or analytics; used by the classify endpoint.
func (s *ChatbotService) Reply(message string) models.Reply {
	return s.responder.Reply(message)
}

// Classify reports the matched intent and keyword without picking a template.
func (s *ChatbotService) Classify(message string) (models.IntentCategory, string, bool) {
	return s.responder.classifier.MatchDetail(message)
}

// MenuActions renders the help topics as quick-reply buttons.
func (s *ChatbotService) MenuActions() []models.Action {
	topics := s.shortcuts.Topics()
	actions := make([]models.Action, 0, len(topics))
	for _, t := range topics {
		actions = append(actions, models.Action{
			Type:    "quick_reply",
			Label:   t.Title,
			Payload: t.Key,
		})
	}
	return actions
}

// Menu returns the numbered help topics.
func (s *ChatbotService) Menu() []utils.MenuTopic {
	return s.shortcuts.Topics()
}

// SupportedIntents lists the categories in matching order with their keywords.
func (s *ChatbotService) SupportedIntents() []map[string]interface{} {
	intents := make([]map[string]interface{}, 0, s.taxonomy.Len())
	for i, c := range s.taxonomy.Categories() {
		intents = append(intents, map[string]interface{}{
			"intent":    c,
			"priority":  i + 1,
			"keywords":  s.taxonomy.Keywords(c),
			"templates": s.taxonomy.PoolSize(c),
		})
	}
	return intents
}

// Analytics returns the per-intent reply counts.
func (s *ChatbotService) Analytics(ctx context.Context) ([]models.IntentCount, error) {
	return s.analytics.Summary(ctx)
}

func (s *ChatbotService) record(ctx context.Context, sessionID string, channel models.MessageChannel, reply models.Reply) {
	ctx, cancel := context.WithTimeout(ctx, analyticsTimeout)
	defer cancel()

	event := models.IntentEvent{
		SessionID: sessionID,
		Channel:   channel,
		Source:    reply.Source,
		Intent:    reply.Intent,
		CreatedAt: time.Now(),
	}
	if err := s.analytics.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record intent event", zap.Error(err), zap.String("session_id", sessionID))
	}
}
