package llm

import "context"

// Roles used in completion requests.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single entry in a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest holds parameters for a completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completion is the result of a completion call. NoContent marks a
// well-formed response from which no text could be extracted; callers
// treat it as an empty completion rather than guessing at wire shapes.
type Completion struct {
	Content      string
	FinishReason string
	NoContent    bool
}

// Provider is the interface for completion providers.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
