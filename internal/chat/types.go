package chat

// AI indicator states shown next to a message while the assistant works.
const (
	AIStateThinking = "AI_STATE_THINKING"
	AIStateError    = "AI_STATE_ERROR"
)

// Event types carried on the wire.
const (
	EventMessageNew      = "message.new"
	EventIndicatorUpdate = "ai_indicator.update"
	EventIndicatorClear  = "ai_indicator.clear"
)

// Message is a chat message as delivered by the platform.
type Message struct {
	ID          string         `json:"id,omitempty"`
	CID         string         `json:"cid,omitempty"`
	Text        string         `json:"text"`
	AIGenerated bool           `json:"ai_generated,omitempty"`
	Custom      map[string]any `json:"custom,omitempty"`
}

// WritingTask returns the writing-task hint from custom metadata, or "".
func (m *Message) WritingTask() string {
	if m == nil || m.Custom == nil {
		return ""
	}
	if s, ok := m.Custom["writingTask"].(string); ok {
		return s
	}
	return ""
}

// MessageEvent is delivered to subscribed handlers for each new message
// on a channel. Message may be nil for malformed frames.
type MessageEvent struct {
	Type    string   `json:"type"`
	CID     string   `json:"cid"`
	Message *Message `json:"message"`
}

// MessageInput is the payload for creating a message.
type MessageInput struct {
	Text        string         `json:"text"`
	AIGenerated bool           `json:"ai_generated,omitempty"`
	Custom      map[string]any `json:"custom,omitempty"`
}

// SentMessage identifies a message created by the platform.
// Both IDs are assigned server-side at creation time.
type SentMessage struct {
	ID  string `json:"id"`
	CID string `json:"cid"`
}

// Event is a transient side-channel signal scoped to a message,
// distinct from a chat message. Used for AI indicator updates.
type Event struct {
	Type      string `json:"type"`
	CID       string `json:"cid"`
	MessageID string `json:"message_id"`
	AIState   string `json:"ai_state,omitempty"`
}
