package intent

import (
	"strings"

	"portfolio-chatbot/internal/textmatch"
)

// Classifier evaluates the rule tables in priority order: theme commands,
// navigation commands, topics, then the default intent. Pure string work;
// never fails.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify normalizes the message and returns the first matching rule's
// classification. When nothing matches it returns the default intent with low
// confidence so the router falls through to the fallback bank.
func (c *Classifier) Classify(text string) Classification {
	normalized := textmatch.Normalize(text)
	tokens := textmatch.TokenSet(text)

	for _, r := range themeRules {
		if ruleMatches(r, normalized, tokens) {
			return Classification{Intent: r.intent, Confidence: r.confidence, Theme: r.theme}
		}
	}

	if containsAny(normalized, tokens, navVerbs) {
		for _, r := range navTargets {
			if ruleMatches(r, normalized, tokens) {
				return Classification{Intent: r.intent, Confidence: commandConfidence, Route: r.route}
			}
		}
	}

	for _, r := range topicRules {
		if ruleMatches(r, normalized, tokens) {
			return Classification{Intent: r.intent, Confidence: r.confidence}
		}
	}

	return Classification{Intent: Default, Confidence: defaultConfidence}
}

func ruleMatches(r rule, normalized string, tokens map[string]struct{}) bool {
	return containsAny(normalized, tokens, r.triggers)
}

// containsAny matches phrase triggers by substring and short single-word
// triggers by whole token, so "hi" does not fire inside "chi tiet".
func containsAny(normalized string, tokens map[string]struct{}, triggers []string) bool {
	for _, t := range triggers {
		if !strings.Contains(t, " ") && len([]rune(t)) <= 3 {
			if _, ok := tokens[t]; ok {
				return true
			}
			continue
		}
		if strings.Contains(normalized, t) {
			return true
		}
	}
	return false
}
