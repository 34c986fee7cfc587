package utils

import (
	"strings"

	"delivery-support-chatbot/models"
)

// IntentClassifier maps an utterance to the first intent category, in taxonomy
// priority order, that has a keyword occurring anywhere in the text.
type IntentClassifier struct {
	taxonomy *Taxonomy
}

func NewIntentClassifier(taxonomy *Taxonomy) *IntentClassifier {
	return &IntentClassifier{taxonomy: taxonomy}
}

// ClassifyIntent returns the matched category, or false when nothing matched.
func (ic *IntentClassifier) ClassifyIntent(message string) (models.IntentCategory, bool) {
	intent, _, ok := ic.MatchDetail(message)
	return intent, ok
}

// MatchDetail is ClassifyIntent plus the keyword that fired.
func (ic *IntentClassifier) MatchDetail(message string) (models.IntentCategory, string, bool) {
	message = normalize(message)
	if strings.TrimSpace(message) == "" {
		return "", "", false
	}

	// Categories share words, so the first hit wins and later ones are never tested.
	for _, entry := range ic.taxonomy.entries {
		if kw, ok := ic.containsAnyKeyword(message, entry.Keywords); ok {
			return entry.Category, kw, true
		}
	}

	return "", "", false
}

func (ic *IntentClassifier) containsAnyKeyword(message string, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// Taxonomy returns the table the classifier matches against.
func (ic *IntentClassifier) Taxonomy() *Taxonomy {
	return ic.taxonomy
}
