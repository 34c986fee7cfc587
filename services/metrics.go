package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_replies_total",
			Help: "Replies produced by the responder, by source and intent",
		},
		[]string{"source", "intent"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbot_active_sessions",
			Help: "Conversation sessions currently open",
		},
	)

	ReplyDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatbot_reply_latency_seconds",
			Help:    "Time from user message to bot message, typing delay included",
			Buckets: prometheus.DefBuckets,
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_rate_limited_total",
			Help: "Messages rejected by the rate limiter",
		},
		[]string{"channel"},
	)
)
