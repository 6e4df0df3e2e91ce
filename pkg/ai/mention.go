package ai

import (
	"strings"
)

// DefaultMarker flags a chat message as addressed to the assistant.
const DefaultMarker = "@ai"

// Mention is the routing decision for one chat message.
type Mention struct {
	OriginalMessage string // Message as sent, broadcast unchanged
	Prompt          string // Message with the first marker removed
	Addressed       bool   // Marker present
}

// DetectMention is a plain, case-sensitive substring test. Only the first
// occurrence of the marker is removed and the remainder is not trimmed, so
// "hello @ai summarize" yields the prompt "hello  summarize".
func DetectMention(message, marker string) Mention {
	if marker == "" {
		marker = DefaultMarker
	}

	if !strings.Contains(message, marker) {
		return Mention{OriginalMessage: message, Prompt: message}
	}

	return Mention{
		OriginalMessage: message,
		Prompt:          strings.Replace(message, marker, "", 1),
		Addressed:       true,
	}
}
