package services

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"delivery-support-chatbot/models"
	"delivery-support-chatbot/utils"

	"go.uber.org/zap"
)

// RandomSource picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// NewSeededSource returns a PCG-backed RandomSource.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Responder turns one utterance into reply text: menu shortcut, then intent
// template, then the fixed fallback.
type Responder struct {
	classifier *utils.IntentClassifier
	shortcuts  *utils.MenuShortcuts
	fallback   string
	logger     *zap.Logger

	rngMu sync.Mutex
	rng   RandomSource
}

func NewResponder(classifier *utils.IntentClassifier, shortcuts *utils.MenuShortcuts, rng RandomSource, logger *zap.Logger) *Responder {
	return &Responder{
		classifier: classifier,
		shortcuts:  shortcuts,
		fallback:   FallbackMessage(shortcuts),
		rng:        rng,
		logger:     logger,
	}
}

// Respond returns the reply text for message. It never returns "".
func (r *Responder) Respond(message string) string {
	return r.Reply(message).Text
}

// Reply is Respond with the reply's provenance.
func (r *Responder) Reply(message string) models.Reply {
	reply := r.reply(message)
	RepliesTotal.WithLabelValues(string(reply.Source), string(reply.Intent)).Inc()
	r.logger.Debug("reply selected",
		zap.String("source", string(reply.Source)),
		zap.String("intent", string(reply.Intent)),
		zap.String("keyword", reply.Keyword),
	)
	return reply
}

func (r *Responder) reply(message string) models.Reply {
	if answer, ok := r.shortcuts.Shortcut(message); ok {
		return models.Reply{Text: answer, Source: models.SourceShortcut}
	}

	intent, keyword, ok := r.classifier.MatchDetail(message)
	if !ok {
		return models.Reply{Text: r.fallback, Source: models.SourceFallback}
	}

	taxonomy := r.classifier.Taxonomy()
	tpl, ok := taxonomy.Template(intent, r.pick(taxonomy.PoolSize(intent)))
	if !ok {
		// Unreachable with a validated taxonomy and a well-behaved RandomSource.
		return models.Reply{Text: r.fallback, Source: models.SourceFallback}
	}

	return models.Reply{
		Text:    tpl,
		Source:  models.SourceIntent,
		Intent:  intent,
		Keyword: keyword,
	}
}

func (r *Responder) pick(n int) int {
	if n <= 1 {
		return 0
	}
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.IntN(n)
}

// Fallback returns the fixed reply for unclassified input.
func (r *Responder) Fallback() string {
	return r.fallback
}

// FallbackMessage renders the help menu used when nothing matched.
func FallbackMessage(shortcuts *utils.MenuShortcuts) string {
	var b strings.Builder
	b.WriteString("🤔 Maaf kijiye, main samajh nahi paaya.\nIn topics mein se ek chuniye (number type karein):\n\n")
	for _, t := range shortcuts.Topics() {
		fmt.Fprintf(&b, "%s. %s\n", t.Key, t.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// GreetingMessage is the bot message that opens every session.
func GreetingMessage(shortcuts *utils.MenuShortcuts) string {
	var b strings.Builder
	b.WriteString("🙏 Namaste! Main FreshCart support assistant hoon.\nKuch bhi poochiye, ya number type karein:\n\n")
	for _, t := range shortcuts.Topics() {
		fmt.Fprintf(&b, "%s. %s\n", t.Key, t.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}
