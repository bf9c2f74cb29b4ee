package nlu

import (
	"regexp"
	"strings"

	"github.com/amirasaad/voicepay/pkg/domain/user"
	"github.com/amirasaad/voicepay/pkg/money"
)

var (
	reUPI    = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z]+`)
	rePhone  = regexp.MustCompile(`\+?\b91[\s-]?\d{10}\b|\b0?\d{10}\b`)
	reAmount = regexp.MustCompile(`(?i)(?:rs\.?|rupees?|inr|₹)?\s*\b(\d{1,3}(?:,\d{2,3})+(?:\.\d{1,2})?|\d{1,9}(?:\.\d{1,2})?)\b\s*(?:rs\.?|rupees?|inr|₹)?`)
	reName   = regexp.MustCompile(`\b(?:to|pay|from|ask|give)\s+([a-z]+)(?:\s+([a-z]+))?`)
)

var nameStopWords = map[string]struct{}{
	"money": {}, "cash": {}, "amount": {}, "payment": {}, "the": {}, "my": {}, "his": {}, "her": {},
	"me": {}, "him": {}, "them": {}, "rs": {}, "rupee": {}, "rupees": {}, "inr": {}, "at": {}, "on": {},
	"upi": {}, "phone": {}, "number": {}, "mobile": {}, "id": {}, "please": {}, "for": {}, "and": {},
}

func stopWord(w string) bool {
	_, ok := nameStopWords[w]
	return ok
}

// Extract pulls amount, phone, UPI id and a recipient name out of text.
// Matched UPI ids and phones are blanked before the amount search so their
// digits are never read as an amount.
func Extract(text string) Entities {
	var e Entities
	rest := text

	if m := reUPI.FindString(rest); m != "" {
		e.UPIID = strings.ToLower(m)
		rest = strings.Replace(rest, m, " ", 1)
	}
	if m := rePhone.FindString(rest); m != "" {
		if phone, err := user.NormalizePhone(m); err == nil {
			e.PhoneNumber = phone
		}
		rest = strings.Replace(rest, m, " ", 1)
	}
	// Amounts may be grouped either way: 2,500 or 1,00,000.
	if m := reAmount.FindStringSubmatch(rest); m != nil {
		if amount, err := money.Parse(strings.ReplaceAll(m[1], ",", "")); err == nil && amount.IsPositive() {
			e.Amount = &amount
		}
		rest = strings.Replace(rest, m[0], " ", 1)
	}

	for _, m := range reName.FindAllStringSubmatch(strings.ToLower(rest), -1) {
		if stopWord(m[1]) {
			continue
		}
		name := m[1]
		if m[2] != "" && !stopWord(m[2]) {
			name += " " + m[2]
		}
		e.RecipientName = titleCase(name)
		break
	}
	return e
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
