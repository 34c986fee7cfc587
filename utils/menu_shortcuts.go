package utils

// MenuTopic is one numbered entry of the help menu.
type MenuTopic struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Answer string `json:"-"`
}

// MenuShortcuts answers the bare digits "1".."5" with fixed text.
type MenuShortcuts struct {
	topics  []MenuTopic
	answers map[string]string
}

func NewMenuShortcuts(topics []MenuTopic) *MenuShortcuts {
	ms := &MenuShortcuts{
		topics:  append([]MenuTopic(nil), topics...),
		answers: make(map[string]string, len(topics)),
	}
	for _, t := range topics {
		ms.answers[t.Key] = t.Answer
	}
	return ms
}

// DefaultMenuShortcuts returns the five-topic help menu.
func DefaultMenuShortcuts() *MenuShortcuts {
	return NewMenuShortcuts([]MenuTopic{
		{
			Key:    "1",
			Title:  "Order tracking",
			Answer: "📦 Order track karne ke liye: My Orders → apna order chunein.\nLive status aur rider location wahin milegi.",
		},
		{
			Key:    "2",
			Title:  "Products & prices",
			Answer: "🥩 Aaj ke fresh rates Shop tab par hain.\nMutton, chicken, fish aur eggs roz subah restock hote hain.",
		},
		{
			Key:    "3",
			Title:  "Delivery timings",
			Answer: "🛵 Delivery subah 7 se raat 10 baje tak, aam taur par 30–45 minute mein.",
		},
		{
			Key:    "4",
			Title:  "Payments & refunds",
			Answer: "💳 UPI, card, wallet aur COD available hain.\nRefund 3–5 working days mein original method par aata hai.",
		},
		{
			Key:    "5",
			Title:  "Talk to support",
			Answer: "📞 Customer care: 1800-123-4567 (7am–10pm).\nYa apna sawaal yahin likhiye.",
		},
	})
}

// Shortcut matches text by exact equality; " 1" and "1." are not shortcuts.
func (ms *MenuShortcuts) Shortcut(text string) (string, bool) {
	answer, ok := ms.answers[text]
	return answer, ok
}

// Topics returns the menu in display order.
func (ms *MenuShortcuts) Topics() []MenuTopic {
	return append([]MenuTopic(nil), ms.topics...)
}
