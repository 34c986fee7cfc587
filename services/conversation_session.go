package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"delivery-support-chatbot/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrSessionClosed = errors.New("session is closed")
)

// Replier produces the bot's answer to one user message.
type Replier interface {
	Respond(message string) string
}

// ReplierFunc adapts a plain function to Replier.
type ReplierFunc func(message string) string

func (f ReplierFunc) Respond(message string) string {
	return f(message)
}

// MessageListener is called after every transcript append, outside the session lock.
type MessageListener func(models.Message)

type pendingReply struct {
	text string
	at   time.Time
}

// ConversationSession is one widget conversation: an append-only transcript and
// a single reply worker. Replies are produced one at a time in submission order,
// each after the typing delay. Close stops the worker and cancels its timer.
type ConversationSession struct {
	id      string
	replier Replier
	delay   time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu         sync.Mutex
	messages   []models.Message
	queue      []pendingReply
	pending    int
	closed     bool
	lastActive time.Time
	listeners  map[int]MessageListener
	nextListen int

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// SessionOptions configures a ConversationSession.
type SessionOptions struct {
	TypingDelay time.Duration
	Greeting    string
	Clock       func() time.Time
}

// NewConversationSession creates the session, seeds it with the greeting and
// starts its reply worker.
func NewConversationSession(id string, replier Replier, opts SessionOptions, logger *zap.Logger) *ConversationSession {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &ConversationSession{
		id:        id,
		replier:   replier,
		delay:     opts.TypingDelay,
		now:       opts.Clock,
		logger:    logger.With(zap.String("session_id", id)),
		listeners: make(map[int]MessageListener),
		wake:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	s.lastActive = s.now()
	if opts.Greeting != "" {
		s.messages = append(s.messages, s.newMessage(models.OriginBot, opts.Greeting))
	}

	go s.run()
	return s
}

// ID returns the session identifier.
func (s *ConversationSession) ID() string {
	return s.id
}

// Submit appends a user message and queues the bot's reply.
func (s *ConversationSession) Submit(text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.Message{}, ErrSessionClosed
	}
	msg := s.newMessage(models.OriginUser, text)
	s.messages = append(s.messages, msg)
	s.queue = append(s.queue, pendingReply{text: text, at: msg.SentAt})
	s.pending++
	s.lastActive = msg.SentAt
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}

	notify(listeners, msg)
	return msg, nil
}

// Transcript returns a copy of the messages in display order.
func (s *ConversationSession) Transcript() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// State reports whether a bot reply is outstanding.
func (s *ConversationSession) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending > 0 {
		return models.StateAwaitingBotReply
	}
	return models.StateIdle
}

// LastActive is the time of the last user message, or creation time.
func (s *ConversationSession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Closed reports whether Close has been called.
func (s *ConversationSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Subscribe registers fn for future appends. The returned func removes it.
func (s *ConversationSession) Subscribe(fn MessageListener) func() {
	_, unsubscribe := s.SubscribeWithSnapshot(fn)
	return unsubscribe
}

// SubscribeWithSnapshot registers fn and returns the transcript as of that
// moment. Every message is in exactly one of the snapshot or fn's calls.
func (s *ConversationSession) SubscribeWithSnapshot(fn MessageListener) ([]models.Message, func()) {
	s.mu.Lock()
	id := s.nextListen
	s.nextListen++
	s.listeners[id] = fn
	snapshot := append([]models.Message(nil), s.messages...)
	s.mu.Unlock()

	return snapshot, func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close drops queued replies, cancels the typing timer and waits for the worker
// to exit. Nothing is appended after Close returns. Must not be called from a
// MessageListener.
func (s *ConversationSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	dropped := len(s.queue)
	s.queue = nil
	s.pending = 0
	s.listeners = map[int]MessageListener{}
	s.mu.Unlock()

	s.cancel()
	<-s.done

	if dropped > 0 {
		s.logger.Debug("session closed with replies pending", zap.Int("dropped", dropped))
	}
}

func (s *ConversationSession) run() {
	defer close(s.done)

	for {
		job, ok := s.next()
		if !ok {
			select {
			case <-s.ctx.Done():
				return
			case <-s.wake:
				continue
			}
		}

		if !s.sleep() {
			return
		}
		s.appendReply(job, s.replier.Respond(job.text))
	}
}

func (s *ConversationSession) next() (pendingReply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || len(s.queue) == 0 {
		return pendingReply{}, false
	}
	job := s.queue[0]
	s.queue = s.queue[1:]
	return job, true
}

// sleep waits out the typing delay; false means the session was closed.
func (s *ConversationSession) sleep() bool {
	if s.delay <= 0 {
		return s.ctx.Err() == nil
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *ConversationSession) appendReply(job pendingReply, text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	msg := s.newMessage(models.OriginBot, text)
	s.messages = append(s.messages, msg)
	s.pending--
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	ReplyDelay.Observe(msg.SentAt.Sub(job.at).Seconds())
	notify(listeners, msg)
}

func (s *ConversationSession) newMessage(origin models.MessageOrigin, text string) models.Message {
	return models.Message{
		ID:     uuid.NewString(),
		Origin: origin,
		Text:   text,
		SentAt: s.now(),
	}
}

func (s *ConversationSession) snapshotListeners() []MessageListener {
	if len(s.listeners) == 0 {
		return nil
	}
	out := make([]MessageListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []MessageListener, msg models.Message) {
	for _, fn := range listeners {
		fn(msg)
	}
}
