package nlu

import (
	"context"
	"log/slog"
	"strings"
)

// Interpreter classifies text with a primary classifier, falls back to the
// keyword rules when it fails or is unsure, and extracts entities for money
// intents.
type Interpreter struct {
	primary       Classifier
	fallback      Classifier
	minConfidence float64
	logger        *slog.Logger
}

// NewInterpreter creates an Interpreter. A nil primary uses the keyword rules only.
func NewInterpreter(primary Classifier, minConfidence float64, logger *slog.Logger) *Interpreter {
	fallback := KeywordClassifier{}
	if primary == nil {
		primary = fallback
	}
	return &Interpreter{
		primary:       primary,
		fallback:      fallback,
		minConfidence: minConfidence,
		logger:        logger.With("component", "nlu"),
	}
}

func (i *Interpreter) Interpret(ctx context.Context, text string) (*Command, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyCommand
	}

	c, err := i.primary.Classify(ctx, text)
	if err != nil {
		i.logger.Warn("classifier failed, using keyword rules", "error", err)
		c, _ = i.fallback.Classify(ctx, text)
	} else if c.Confidence < i.minConfidence {
		kw, _ := i.fallback.Classify(ctx, text)
		i.logger.Debug("low confidence", "intent", c.Intent, "confidence", c.Confidence, "keyword", kw.Intent)
		if kw.Intent != IntentOther {
			c = Classification{Intent: kw.Intent, Confidence: kw.Confidence, Entities: c.Entities}
		} else {
			c.Intent = IntentOther
		}
	}

	cmd := &Command{Text: text, Intent: c.Intent, Confidence: c.Confidence}
	if c.Intent == IntentTransfer || c.Intent == IntentRequest {
		cmd.Entities = Extract(text).merge(c.Entities)
	}
	return cmd, nil
}
