package nlu

import (
	"context"
	"regexp"
	"strings"
)

// DefaultReply is used when no canned answer matches.
const DefaultReply = "I'm here to help you with your UPI transactions!"

var cannedReplies = []struct {
	re    *regexp.Regexp
	reply string
}{
	{regexp.MustCompile(`\b(hi|hello|hey|namaste)\b`), "Hello! You can ask me to send money, request money or check your balance."},
	{regexp.MustCompile(`\b(thanks|thank you|thx)\b`), "You're welcome!"},
	{regexp.MustCompile(`\b(help|what can you do)\b`), "Try saying: 'Send ₹100 to ravi@upi', 'Request ₹50 from 9876543210' or 'What is my balance?'"},
	{regexp.MustCompile(`\b(upi id|my handle)\b`), "Your UPI ID is your name in lowercase without spaces followed by @upi."},
}

// RuleResponder answers small talk from a fixed table.
type RuleResponder struct{}

func (RuleResponder) Respond(_ context.Context, text string) string {
	lower := strings.ToLower(text)
	for _, c := range cannedReplies {
		if c.re.MatchString(lower) {
			return c.reply
		}
	}
	return DefaultReply
}
