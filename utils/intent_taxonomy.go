package utils

import (
	"errors"
	"fmt"
	"strings"

	"delivery-support-chatbot/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidTaxonomy is returned when the intent table is misconfigured.
var ErrInvalidTaxonomy = errors.New("invalid intent taxonomy")

// IntentEntry is one intent category with its trigger keywords and reply pool.
type IntentEntry struct {
	Category  models.IntentCategory
	Keywords  []string
	Templates []string
}

// Taxonomy is the immutable, priority-ordered intent table.
type Taxonomy struct {
	entries []IntentEntry
	index   map[models.IntentCategory]int
}

// NewTaxonomy validates the entries and returns them as a Taxonomy. The order of
// entries is the matching priority. Keywords are normalised the same way user
// text is, so table authors may write them in any case.
func NewTaxonomy(entries ...IntentEntry) (*Taxonomy, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidTaxonomy)
	}

	t := &Taxonomy{
		entries: make([]IntentEntry, 0, len(entries)),
		index:   make(map[models.IntentCategory]int, len(entries)),
	}

	for _, e := range entries {
		if e.Category == "" {
			return nil, fmt.Errorf("%w: category without a name", ErrInvalidTaxonomy)
		}
		if _, dup := t.index[e.Category]; dup {
			return nil, fmt.Errorf("%w: category %q defined twice", ErrInvalidTaxonomy, e.Category)
		}
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("%w: category %q has no keywords", ErrInvalidTaxonomy, e.Category)
		}
		if len(e.Templates) == 0 {
			return nil, fmt.Errorf("%w: category %q has no templates", ErrInvalidTaxonomy, e.Category)
		}

		keywords := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = normalize(kw)
			if strings.TrimSpace(kw) == "" {
				return nil, fmt.Errorf("%w: category %q has a blank keyword", ErrInvalidTaxonomy, e.Category)
			}
			keywords = append(keywords, kw)
		}
		for _, tpl := range e.Templates {
			if strings.TrimSpace(tpl) == "" {
				return nil, fmt.Errorf("%w: category %q has a blank template", ErrInvalidTaxonomy, e.Category)
			}
		}

		t.index[e.Category] = len(t.entries)
		t.entries = append(t.entries, IntentEntry{
			Category:  e.Category,
			Keywords:  keywords,
			Templates: append([]string(nil), e.Templates...),
		})
	}

	return t, nil
}

// Categories returns the categories in matching priority order.
func (t *Taxonomy) Categories() []models.IntentCategory {
	out := make([]models.IntentCategory, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Category
	}
	return out
}

// Keywords returns the normalised trigger keywords for c, or nil if c is unknown.
func (t *Taxonomy) Keywords(c models.IntentCategory) []string {
	i, ok := t.index[c]
	if !ok {
		return nil
	}
	return append([]string(nil), t.entries[i].Keywords...)
}

// Templates returns the response pool for c, or nil if c is unknown.
func (t *Taxonomy) Templates(c models.IntentCategory) []string {
	i, ok := t.index[c]
	if !ok {
		return nil
	}
	return append([]string(nil), t.entries[i].Templates...)
}

// Len reports the number of categories.
func (t *Taxonomy) Len() int {
	return len(t.entries)
}

// PoolSize returns how many templates c has.
func (t *Taxonomy) PoolSize(c models.IntentCategory) int {
	i, ok := t.index[c]
	if !ok {
		return 0
	}
	return len(t.entries[i].Templates)
}

// Template returns template n of c's pool. ok is false when c is unknown or n is
// out of range.
func (t *Taxonomy) Template(c models.IntentCategory, n int) (string, bool) {
	i, ok := t.index[c]
	if !ok {
		return "", false
	}
	pool := t.entries[i].Templates
	if n < 0 || n >= len(pool) {
		return "", false
	}
	return pool[n], true
}

// normalize folds text into the form keywords are stored in: NFC composed, then
// lowercased. Scripts without case (Devanagari) pass through unchanged.
func normalize(s string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// DefaultTaxonomy returns the shipped intent table. It panics on a configuration
// error so a broken table stops the process at startup.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(defaultEntries()...)
	if err != nil {
		panic(err)
	}
	return t
}

func defaultEntries() []IntentEntry {
	return []IntentEntry{
		{
			Category: models.IntentOrder,
			Keywords: []string{
				"order", "ऑर्डर", "आर्डर", "track", "status", "cancel", "कैंसिल",
				"mera saman", "parcel",
			},
			Templates: []string{
				"📦 Aapka order track karne ke liye *My Orders* section kholiye.\nWahan live status aur rider ki location dono dikh jayenge.",
				"📦 Order status: My Orders → apna order select karein.\nOrder cancel karna ho to packing shuru hone se pehle *Cancel* dabayein.",
				"🧾 Aapke order ki jaankari My Orders mein hai.\nAgar status 10 minute se update nahi hua, to 5 type karke support se baat karein.",
			},
		},
		{
			Category: models.IntentProduct,
			Keywords: []string{
				"product", "मटन", "mutton", "chicken", "चिकन", "मुर्गा", "fish", "मछली",
				"machli", "egg", "अंडा", "anda", "prawn", "rate", "price", "कीमत", "दाम",
				"fresh", "stock", "quality",
			},
			Templates: []string{
				"🍗 Aaj ke rates app ke *Shop* tab par live hain.\nSabhi cuts roz subah fresh aate hain.",
				"🥩 Mutton, chicken, fish aur eggs sabhi ke daam Shop tab mein dikhte hain.\nKoi item out of stock ho to *Notify me* dabayein.",
				"🐟 Hum sirf same-day fresh stock bechte hain.\nPrice aur weight options product page par milenge.",
			},
		},
		{
			Category: models.IntentDelivery,
			Keywords: []string{
				"delivery", "डिलीवरी", "deliver", "time", "समय", "kab", "कब", "late",
				"delay", "rider", "pincode", "area", "slot",
			},
			Templates: []string{
				"🛵 Delivery usually 30–45 minute mein ho jaati hai.\nSlot checkout par chun sakte hain.",
				"⏱️ Hum subah 7 se raat 10 baje tak deliver karte hain.\nApna pincode Home screen par daal kar service check karein.",
				"🛵 Rider ki live location order page par dikhegi.\nBaarish ya traffic mein thodi der ho sakti hai, maafi chahte hain.",
			},
		},
		{
			Category: models.IntentPayment,
			Keywords: []string{
				"payment", "पेमेंट", "pay", "upi", "cod", "cash", "card", "refund",
				"रिफंड", "wallet", "bill", "paisa", "पैसे",
			},
			Templates: []string{
				"💳 Hum UPI, cards, wallets aur Cash on Delivery lete hain.",
				"💰 Refund 3–5 working days mein original payment method par aa jaata hai.\nUPI refunds aksar 24 ghante mein.",
				"🧾 Payment fail hua aur paise kat gaye? Chinta na karein, 48 ghante mein auto-refund ho jaata hai.",
			},
		},
		{
			Category: models.IntentAccount,
			Keywords: []string{
				"account", "अकाउंट", "login", "logout", "otp", "password", "profile",
				"sign up", "signup", "register", "email",
			},
			Templates: []string{
				"👤 Login ke liye apna mobile number daaliye, OTP turant aayega.\nOTP na aaye to 30 second baad *Resend* dabayein.",
				"👤 Profile, address aur email *Account* tab se badal sakte hain.",
			},
		},
		{
			Category: models.IntentVendor,
			Keywords: []string{
				"vendor", "वेंडर", "shop", "dukaan", "दुकान", "seller", "butcher",
				"partner", "sell",
			},
			Templates: []string{
				"🏪 Apni dukaan humse jodne ke liye *Partner with us* form bhariye.\nHamari team 2 din mein call karegi.",
				"🤝 Vendor partners ko weekly payout aur free delivery fleet milti hai.\nDetails ke liye partners@freshcart.in par likhein.",
			},
		},
		{
			Category: models.IntentHelp,
			Keywords: []string{
				"help", "मदद", "madad", "support", "सहायता", "assist", "customer care",
				"contact", "call",
			},
			Templates: []string{
				"🙋 Hum madad ke liye yahin hain!\nCustomer care: 1800-123-4567 (7am–10pm).",
				"📞 Support se baat karne ke liye 1800-123-4567 par call karein ya yahin apna sawaal likhein.",
			},
		},
		{
			Category: models.IntentGreeting,
			Keywords: []string{
				"hi", "hello", "hey", "namaste", "नमस्ते", "namaskar", "नमस्कार",
				"good morning", "good evening", "thanks", "thank you", "धन्यवाद",
			},
			Templates: []string{
				"🙏 Namaste! Main aapki kya madad kar sakta hoon?",
				"👋 Hello! Order, delivery ya payment, kuch bhi poochiye.",
				"😊 Hi there! Aaj kya mangwa rahe hain?",
			},
		},
		{
			Category: models.IntentComplaint,
			Keywords: []string{
				"complaint", "शिकायत", "shikayat", "bad", "worst", "kharab", "खराब",
				"wrong", "galat", "गलत", "smell", "issue", "problem", "rotten",
			},
			Templates: []string{
				"😔 Hume bahut afsos hai.\nMy Orders → *Report issue* mein photo ke saath batayein, 24 ghante mein solution milega.",
				"🙏 Maafi chahte hain! Galat ya kharab item ka poora refund ya replacement milega.\nReport issue se complaint darj karein.",
			},
		},
	}
}
