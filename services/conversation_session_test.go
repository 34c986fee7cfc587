package services

import (
	"sync"
	"testing"
	"time"

	"delivery-support-chatbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func echoReplier(message string) string {
	return "re: " + message
}

func newTestSession(t *testing.T, delay time.Duration) *ConversationSession {
	t.Helper()
	s := NewConversationSession("s1", ReplierFunc(echoReplier), SessionOptions{
		TypingDelay: delay,
		Greeting:    "welcome",
	}, zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func botTexts(msgs []models.Message) []string {
	var out []string
	for _, m := range msgs {
		if m.Origin == models.OriginBot {
			out = append(out, m.Text)
		}
	}
	return out
}

func TestSession_SeededWithGreeting(t *testing.T) {
	s := newTestSession(t, 0)

	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, models.OriginBot, transcript[0].Origin)
	assert.Equal(t, "welcome", transcript[0].Text)
	assert.Equal(t, models.StateIdle, s.State())
}

func TestSession_RoundTrip(t *testing.T) {
	s := newTestSession(t, 10*time.Millisecond)

	msg, err := s.Submit("  Hi  ")
	require.NoError(t, err)
	assert.Equal(t, "Hi", msg.Text)
	assert.Equal(t, models.OriginUser, msg.Origin)

	assert.Eventually(t, func() bool {
		return len(s.Transcript()) == 3
	}, time.Second, 5*time.Millisecond)

	transcript := s.Transcript()
	assert.Equal(t, "welcome", transcript[0].Text)
	assert.Equal(t, models.OriginUser, transcript[1].Origin)
	assert.Equal(t, "Hi", transcript[1].Text)
	assert.Equal(t, models.OriginBot, transcript[2].Origin)
	assert.Equal(t, "re: Hi", transcript[2].Text)
	assert.Equal(t, models.StateIdle, s.State())
}

func TestSession_RepliesKeepSubmissionOrder(t *testing.T) {
	s := newTestSession(t, time.Millisecond)

	for _, text := range []string{"a", "b", "c", "d"} {
		_, err := s.Submit(text)
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		return len(s.Transcript()) == 9
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"welcome", "re: a", "re: b", "re: c", "re: d"}, botTexts(s.Transcript()))
}

func TestSession_AwaitingWhileTyping(t *testing.T) {
	s := newTestSession(t, time.Hour)

	_, err := s.Submit("order status?")
	require.NoError(t, err)

	assert.Equal(t, models.StateAwaitingBotReply, s.State())
	assert.Len(t, s.Transcript(), 2)
}

func TestSession_CloseCancelsPendingReply(t *testing.T) {
	var calls int
	var mu sync.Mutex
	s := NewConversationSession("s1", ReplierFunc(func(m string) string {
		mu.Lock()
		calls++
		mu.Unlock()
		return m
	}), SessionOptions{TypingDelay: time.Hour}, zap.NewNop())

	_, err := s.Submit("Hi")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel the typing delay")
	}

	assert.Len(t, s.Transcript(), 1)
	assert.Equal(t, models.StateIdle, s.State())
	assert.True(t, s.Closed())

	mu.Lock()
	assert.Zero(t, calls)
	mu.Unlock()
}

func TestSession_SubmitErrors(t *testing.T) {
	s := newTestSession(t, 0)

	_, err := s.Submit("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.Transcript(), 1)

	s.Close()
	s.Close()

	_, err = s.Submit("Hi")
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.Len(t, s.Transcript(), 1)
}

func TestSession_Subscribe(t *testing.T) {
	s := newTestSession(t, 0)

	got := make(chan models.Message, 4)
	unsubscribe := s.Subscribe(func(m models.Message) { got <- m })

	_, err := s.Submit("Hi")
	require.NoError(t, err)

	user := <-got
	assert.Equal(t, models.OriginUser, user.Origin)

	select {
	case bot := <-got:
		assert.Equal(t, "re: Hi", bot.Text)
	case <-time.After(time.Second):
		t.Fatal("no bot reply delivered")
	}

	unsubscribe()
	_, err = s.Submit("again")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(s.Transcript()) == 5
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, got)
}

func TestSession_TranscriptIsCopy(t *testing.T) {
	s := newTestSession(t, 0)

	transcript := s.Transcript()
	transcript[0].Text = "changed"

	assert.Equal(t, "welcome", s.Transcript()[0].Text)
}

func TestSession_SubscribeWithSnapshot(t *testing.T) {
	s := newTestSession(t, time.Hour)

	_, err := s.Submit("first")
	require.NoError(t, err)

	got := make(chan models.Message, 4)
	history, unsubscribe := s.SubscribeWithSnapshot(func(m models.Message) { got <- m })
	defer unsubscribe()

	require.Len(t, history, 2)
	assert.Equal(t, "welcome", history[0].Text)
	assert.Equal(t, "first", history[1].Text)
	assert.Empty(t, got)

	_, err = s.Submit("second")
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "second", (<-got).Text)
}
