package searchtypes

import (
	"bytes"
	"encoding/json"
)

// MessageType classifies a completion message
type MessageType int

const (
	MessageInformation MessageType = 1
	MessageWarning     MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case MessageWarning:
		return "warning"
	default:
		return "information"
	}
}

// Message is an informational or warning note attached to a completion
type Message struct {
	Text    string      `json:"text"`
	Type    MessageType `json:"type"`
	Trusted bool        `json:"trusted,omitempty"`
}

// Messages is a list of completion messages. On the wire a provider may send
// a single object instead of a list.
type Messages []Message

// UnmarshalJSON accepts a single message object or an array
func (m *Messages) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*m = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Message
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*m = Messages{single}
		return nil
	}
	var list []Message
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*m = list
	return nil
}

// Completion is the final status of a search or of one provider call
type Completion struct {
	LimitHit bool     `json:"limitHit"`
	Messages Messages `json:"messages,omitempty"`
}
