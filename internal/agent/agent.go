package agent

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quillworks/scribebot/internal/chat"
	"github.com/quillworks/scribebot/internal/llm"
)

// Defaults for the completion call.
const (
	DefaultModel       = "gpt-4o"
	defaultTemperature = 0.7
	defaultMaxTokens   = 1500
)

// apiKeyEnv is the environment fallback for the provider credential.
const apiKeyEnv = "OPENAI_API_KEY"

// ErrMissingAPIKey is returned by Init when no provider credential is
// available from config or the environment.
var ErrMissingAPIKey = errors.New("provider api key not configured (set provider.apiKey or OPENAI_API_KEY)")

// fallbackErrorText is written into the reply when a failure carries no message.
const fallbackErrorText = "Something went wrong while generating a response."

// Config holds everything an agent needs to serve one channel.
type Config struct {
	Messenger chat.Messenger
	Channel   *chat.Channel

	// Provider overrides the OpenAI client built during Init. Mainly for tests.
	Provider llm.Provider

	APIKey      string
	APIBase     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Agent answers human messages on a single channel with AI-generated
// replies, bracketing each reply with thinking/clear indicator events.
//
// Lifecycle: New (uninitialized) -> Init (listening) -> Dispose (inactive).
type Agent struct {
	config    Config
	messenger chat.Messenger
	channel   *chat.Channel

	mu             sync.Mutex
	provider       llm.Provider
	subscriptionID string

	lastInteraction atomic.Int64 // unix millis
}

// New creates an uninitialized agent bound to one channel.
func New(cfg Config) *Agent {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	a := &Agent{
		config:    cfg,
		messenger: cfg.Messenger,
		channel:   cfg.Channel,
	}
	a.lastInteraction.Store(time.Now().UnixMilli())
	return a
}

// Init resolves the provider credential, constructs the completion client
// and registers the agent for new-message events on its channel. Returns
// ErrMissingAPIKey before registering anything when no credential is set.
// Calling Init on an already initialized agent is a no-op.
func (a *Agent) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.provider != nil {
		return nil
	}

	provider := a.config.Provider
	if provider == nil {
		apiKey := a.config.APIKey
		if apiKey == "" {
			apiKey = os.Getenv(apiKeyEnv)
		}
		if apiKey == "" {
			return ErrMissingAPIKey
		}
		provider = llm.NewOpenAIProvider(apiKey, a.config.APIBase)
	}

	a.provider = provider
	a.subscriptionID = a.channel.Subscribe(a.handleMessage)
	slog.Info("Agent listening", "cid", a.channel.CID)
	return nil
}

// Dispose unregisters the message listener and disconnects the transport.
// Safe to call once per active session; on a never-initialized agent it
// only disconnects.
func (a *Agent) Dispose(ctx context.Context) error {
	a.mu.Lock()
	if a.subscriptionID != "" {
		a.channel.Unsubscribe(a.subscriptionID)
		a.subscriptionID = ""
	}
	a.provider = nil
	a.mu.Unlock()

	slog.Info("Agent disposed", "cid", a.channel.CID)
	return a.messenger.Disconnect(ctx)
}

// LastInteraction returns when the agent last processed a qualifying
// message. Initialized to construction time. Used by idle supervisors.
func (a *Agent) LastInteraction() time.Time {
	return time.UnixMilli(a.lastInteraction.Load())
}

// handleMessage runs once per new-message event on the subscribed channel.
func (a *Agent) handleMessage(ctx context.Context, ev *chat.MessageEvent) {
	a.mu.Lock()
	provider := a.provider
	a.mu.Unlock()
	if provider == nil {
		slog.Warn("Message received before agent init, dropping", "cid", a.channel.CID)
		return
	}

	msg := ev.Message
	if msg == nil || msg.AIGenerated {
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	a.lastInteraction.Store(time.Now().UnixMilli())

	instructions := BuildInstructions(msg.WritingTask(), time.Now())

	placeholder, err := a.channel.SendMessage(ctx, &chat.MessageInput{
		Text:        "",
		AIGenerated: true,
	})
	if err != nil {
		slog.Error("Placeholder send failed", "cid", a.channel.CID, "err", err)
		return
	}

	a.sendIndicator(ctx, placeholder, chat.EventIndicatorUpdate, chat.AIStateThinking)

	completion, err := provider.Complete(ctx, llm.CompletionRequest{
		Model: a.config.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: instructions},
			{Role: llm.RoleUser, Content: msg.Text},
		},
		Temperature: a.config.Temperature,
		MaxTokens:   a.config.MaxTokens,
	})
	if err != nil {
		a.failReply(ctx, placeholder, err)
		return
	}

	text := completion.Content
	if completion.NoContent {
		text = ""
	}
	if err := a.messenger.PartialUpdateMessage(ctx, placeholder.ID, map[string]any{"text": text}); err != nil {
		slog.Error("Reply update failed", "cid", a.channel.CID, "message_id", placeholder.ID, "err", err)
	}
	a.sendIndicator(ctx, placeholder, chat.EventIndicatorClear, "")
}

// failReply surfaces a completion failure to the channel: an ERROR
// indicator plus the error text written into the placeholder message.
func (a *Agent) failReply(ctx context.Context, placeholder *chat.SentMessage, cause error) {
	slog.Error("Completion failed", "cid", a.channel.CID, "err", cause)

	a.sendIndicator(ctx, placeholder, chat.EventIndicatorUpdate, chat.AIStateError)

	text := cause.Error()
	if text == "" {
		text = fallbackErrorText
	}
	if err := a.messenger.PartialUpdateMessage(ctx, placeholder.ID, map[string]any{"text": text}); err != nil {
		slog.Error("Error-text update failed", "cid", a.channel.CID, "message_id", placeholder.ID, "err", err)
	}
}

func (a *Agent) sendIndicator(ctx context.Context, placeholder *chat.SentMessage, eventType, state string) {
	err := a.channel.SendEvent(ctx, &chat.Event{
		Type:      eventType,
		MessageID: placeholder.ID,
		AIState:   state,
	})
	if err != nil {
		slog.Warn("Indicator event failed", "cid", a.channel.CID, "type", eventType, "err", err)
	}
}
