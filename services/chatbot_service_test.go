package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"delivery-support-chatbot/models"
	"delivery-support-chatbot/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAnalytics struct {
	mu     sync.Mutex
	events []models.IntentEvent
	err    error
}

func (a *recordingAnalytics) Record(_ context.Context, event models.IntentEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return a.err
}

func (a *recordingAnalytics) Summary(context.Context) ([]models.IntentCount, error) {
	return []models.IntentCount{{Source: models.SourceIntent, Intent: models.IntentOrder, Count: 3}}, nil
}

func (a *recordingAnalytics) Events() []models.IntentEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.IntentEvent(nil), a.events...)
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func newTestChatbotService(limiter RateLimiter, analytics AnalyticsRecorder) *ChatbotService {
	taxonomy := utils.DefaultTaxonomy()
	shortcuts := utils.DefaultMenuShortcuts()
	responder := NewResponder(utils.NewIntentClassifier(taxonomy), shortcuts, NewSeededSource(3), zap.NewNop())
	return NewChatbotService(responder, shortcuts, taxonomy, limiter, analytics, zap.NewNop())
}

func TestProcessMessage_Intent(t *testing.T) {
	analytics := &recordingAnalytics{}
	svc := newTestChatbotService(nil, analytics)

	resp, err := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "order status?", SessionID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, models.SourceIntent, resp.Source)
	assert.Equal(t, models.IntentOrder, resp.Intent)
	assert.Contains(t, utils.DefaultTaxonomy().Templates(models.IntentOrder), resp.Response)
	assert.Empty(t, resp.Actions)

	events := analytics.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].SessionID)
	assert.Equal(t, models.ChannelWeb, events[0].Channel)
	assert.Equal(t, models.IntentOrder, events[0].Intent)
}

func TestProcessMessage_FallbackCarriesMenu(t *testing.T) {
	svc := newTestChatbotService(nil, nil)

	resp, err := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "xyz123 random gibberish"})
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, resp.Source)
	require.Len(t, resp.Actions, 5)
	assert.Equal(t, "1", resp.Actions[0].Payload)
	assert.Equal(t, "Order tracking", resp.Actions[0].Label)
}

func TestProcessMessage_GreetingCarriesMenu(t *testing.T) {
	svc := newTestChatbotService(nil, nil)

	resp, err := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "Hi"})
	require.NoError(t, err)

	assert.Equal(t, models.IntentGreeting, resp.Intent)
	assert.Len(t, resp.Actions, 5)
}

func TestProcessMessage_RateLimited(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	analytics := &recordingAnalytics{}
	svc := newTestChatbotService(limiter, analytics)

	_, err := svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message:   "Hi",
		SessionID: "919876543210",
		Channel:   models.ChannelWhatsApp,
	})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, []string{"whatsapp:919876543210"}, limiter.keys)
	assert.Empty(t, analytics.Events())
}

func TestProcessMessage_FailuresDoNotBlockReplies(t *testing.T) {
	limiter := &stubLimiter{allow: true, err: errors.New("redis down")}
	analytics := &recordingAnalytics{err: errors.New("mongo down")}
	svc := newTestChatbotService(limiter, analytics)

	resp, err := svc.ProcessMessage(context.Background(), models.ChatRequest{Message: "3", SessionID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceShortcut, resp.Source)
}

func TestAllow_EmptyKeySkipsLimiter(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	svc := newTestChatbotService(limiter, nil)

	assert.NoError(t, svc.Allow(context.Background(), models.ChannelWeb, ""))
	assert.Empty(t, limiter.keys)
}

func TestReplierFor_RecordsAgainstSession(t *testing.T) {
	analytics := &recordingAnalytics{}
	svc := newTestChatbotService(nil, analytics)

	s := NewConversationSession("sess-9", svc.ReplierFor("sess-9"), SessionOptions{}, zap.NewNop())
	defer s.Close()

	_, err := s.Submit("UPI se pay kiya")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(analytics.Events()) == 1
	}, time.Second, 5*time.Millisecond)

	event := analytics.Events()[0]
	assert.Equal(t, "sess-9", event.SessionID)
	assert.Equal(t, models.IntentPayment, event.Intent)
}

func TestClassifyAndCatalog(t *testing.T) {
	svc := newTestChatbotService(nil, nil)

	intent, keyword, ok := svc.Classify("मटन का rate?")
	require.True(t, ok)
	assert.Equal(t, models.IntentProduct, intent)
	assert.Equal(t, "मटन", keyword)

	intents := svc.SupportedIntents()
	require.Len(t, intents, 9)
	assert.Equal(t, models.IntentOrder, intents[0]["intent"])
	assert.Equal(t, 1, intents[0]["priority"])

	assert.Len(t, svc.Menu(), 5)
}

func TestProcessMessage_ClientKeyOverridesSession(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	svc := newTestChatbotService(limiter, nil)

	_, err := svc.ProcessMessage(context.Background(), models.ChatRequest{
		Message:   "Hi",
		SessionID: "chosen-by-client",
		ClientKey: "203.0.113.7",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"web:203.0.113.7"}, limiter.keys)
}
