package ai

import (
	"encoding/json"
	"strings"

	"ai-collab-be/pkg/filetree"
)

// Reply is what the assistant sends back to a room: free text plus an
// optional file tree that members reconcile their workspace against.
type Reply struct {
	Text     string        `json:"text"`
	FileTree filetree.Tree `json:"fileTree,omitempty"`
}

// HasFileTree reports whether the reply carries workspace changes.
func (r Reply) HasFileTree() bool {
	return len(r.FileTree) > 0
}

// Encode renders the reply as the JSON string carried in the message field.
func (r Reply) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseReply decodes raw engine output. Models are asked for a JSON object
// but often wrap it in a markdown fence or answer in prose; prose becomes the
// text of the reply.
func ParseReply(raw string) Reply {
	body := stripFence(strings.TrimSpace(raw))

	var reply Reply
	if err := json.Unmarshal([]byte(body), &reply); err == nil && (reply.Text != "" || reply.HasFileTree()) {
		return reply
	}

	return Reply{Text: raw}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line (```json)
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
