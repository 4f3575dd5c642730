// Package assistant turns a conversation history plus the user's synced
// transactions into a language-model reply. Transaction data is expensive
// and private, so it is only injected when the relevance gate decides the
// turn is actually about finances.
package assistant

import (
	"strings"
)

// Message is one conversational turn. Role is "system", "user" or
// "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Gate decides whether a conversation turn warrants shipping the user's
// transaction data to the model. The keyword list is configuration data,
// not code: it mixes finance verbs with merchant names and can be extended
// without a release.
type Gate struct {
	keywords []string
}

// NewGate builds a gate from the configured keyword list. Keywords are
// matched case-insensitively as substrings.
func NewGate(keywords []string) Gate {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return Gate{keywords: lowered}
}

// ShouldInjectData inspects the most recent user-role message (searching
// backward; no user message means empty content) and reports whether any
// keyword matches.
func (g Gate) ShouldInjectData(history []Message) bool {
	var content string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			content = history[i].Content
			break
		}
	}
	if content == "" {
		return false
	}

	lowered := strings.ToLower(content)
	for _, k := range g.keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}
