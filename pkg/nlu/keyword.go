package nlu

import (
	"context"
	"regexp"
	"strings"
)

type keywordRule struct {
	intent Intent
	re     *regexp.Regexp
}

// Order matters: "ask ravi to pay me" is a request even though it says pay.
var keywordRules = []keywordRule{
	{IntentBalance, regexp.MustCompile(`\b(balance|how much (money )?(do i have|is left))\b`)},
	{IntentRequest, regexp.MustCompile(`\b(request|ask|collect|receive|get)\b.*\b(from|me|money|\d)`)},
	{IntentRequest, regexp.MustCompile(`\brequest\b`)},
	{IntentTransfer, regexp.MustCompile(`\b(send|pay|transfer|give)\b`)},
}

// KeywordClassifier matches fixed phrases. It never errors and is the
// fallback when no model service is configured or reachable.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string) (Classification, error) {
	lower := strings.ToLower(text)
	for _, r := range keywordRules {
		if r.re.MatchString(lower) {
			return Classification{Intent: r.intent, Confidence: 0.9}, nil
		}
	}
	return Classification{Intent: IntentOther, Confidence: 0.5}, nil
}
