package models

import "time"

// IntentCategory is one bucket of related support questions.
type IntentCategory string

const (
	IntentOrder     IntentCategory = "order"
	IntentProduct   IntentCategory = "product"
	IntentDelivery  IntentCategory = "delivery"
	IntentPayment   IntentCategory = "payment"
	IntentAccount   IntentCategory = "account"
	IntentVendor    IntentCategory = "vendor"
	IntentHelp      IntentCategory = "help"
	IntentGreeting  IntentCategory = "greeting"
	IntentComplaint IntentCategory = "complaint"
)

// ReplySource tells which layer produced a reply.
type ReplySource string

const (
	SourceShortcut ReplySource = "shortcut"
	SourceIntent   ReplySource = "intent"
	SourceFallback ReplySource = "fallback"
)

// Reply is the responder's answer to one utterance.
// Intent and Keyword are empty unless Source is SourceIntent.
type Reply struct {
	Text    string         `json:"text"`
	Source  ReplySource    `json:"source"`
	Intent  IntentCategory `json:"intent,omitempty"`
	Keyword string         `json:"keyword,omitempty"`
}

// IntentEvent is one analytics record. It never carries the user's text.
type IntentEvent struct {
	SessionID string         `bson:"session_id" json:"session_id"`
	Channel   MessageChannel `bson:"channel" json:"channel"`
	Source    ReplySource    `bson:"source" json:"source"`
	Intent    IntentCategory `bson:"intent,omitempty" json:"intent,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

// IntentCount is one row of the analytics summary.
type IntentCount struct {
	Source ReplySource    `bson:"source" json:"source"`
	Intent IntentCategory `bson:"intent" json:"intent"`
	Count  int64          `bson:"count" json:"count"`
}
