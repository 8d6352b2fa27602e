package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// MessageHandler is invoked once per new-message event on a subscribed channel.
type MessageHandler func(ctx context.Context, ev *MessageEvent)

// Messenger is the transport surface consumed by agents.
type Messenger interface {
	SendMessage(ctx context.Context, cid string, in *MessageInput) (*SentMessage, error)
	SendEvent(ctx context.Context, ev *Event) error
	PartialUpdateMessage(ctx context.Context, messageID string, set map[string]any) error
	Subscribe(cid string, h MessageHandler) string
	Unsubscribe(cid, subscriptionID string)
	Disconnect(ctx context.Context) error
}

// Config holds chat platform connection settings.
type Config struct {
	APIBase string
	WSURL   string
	APIKey  string
}

// Client talks to the chat platform: REST for outbound calls, a WebSocket
// for the inbound event stream.
type Client struct {
	config     Config
	httpClient *http.Client

	cancel context.CancelFunc
	conn   *websocket.Conn

	mu   sync.RWMutex
	subs map[string]map[string]MessageHandler // cid -> subscription id -> handler
}

// NewClient creates a chat client. Call Listen to start receiving events.
func NewClient(cfg Config) *Client {
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		subs:       make(map[string]map[string]MessageHandler),
	}
}

// Subscribe registers a handler for new-message events on a channel and
// returns a subscription id for Unsubscribe.
func (c *Client) Subscribe(cid string, h MessageHandler) string {
	id := uuid.NewString()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[cid] == nil {
		c.subs[cid] = make(map[string]MessageHandler)
	}
	c.subs[cid][id] = h
	return id
}

// Unsubscribe removes a previously registered handler. Unknown ids are a no-op.
func (c *Client) Unsubscribe(cid, subscriptionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs[cid], subscriptionID)
	if len(c.subs[cid]) == 0 {
		delete(c.subs, cid)
	}
}

// Listen connects to the event stream and dispatches events until ctx is
// cancelled or Disconnect is called. Reconnects on transient failures.
func (c *Client) Listen(ctx context.Context) error {
	if c.config.APIKey == "" {
		return fmt.Errorf("chat api key not configured")
	}

	ctx, c.cancel = context.WithCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		slog.Info("Connecting to chat event stream...")
		conn, _, err := websocket.Dial(ctx, c.config.WSURL, &websocket.DialOptions{
			HTTPHeader: c.authHeader(),
		})
		if err != nil {
			slog.Warn("Chat stream dial error", "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				continue
			}
		}

		conn.SetReadLimit(1 << 20) // 1MB
		c.conn = conn
		err = c.readLoop(ctx)
		conn.Close(websocket.StatusNormalClosure, "reconnecting")
		c.conn = nil

		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("Chat stream disconnected, reconnecting in 5s...", "err", err)
		time.Sleep(5 * time.Second)
	}
}

// Disconnect stops the event stream and drops all subscriptions.
// Safe to call once per connected session; a second call is a no-op.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Lock()
	c.subs = make(map[string]map[string]MessageHandler)
	c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "shutdown")
	}
	return nil
}

// SendMessage creates a message on a channel and returns its server-assigned ids.
func (c *Client) SendMessage(ctx context.Context, cid string, in *MessageInput) (*SentMessage, error) {
	url := fmt.Sprintf("%s/channels/%s/message", c.config.APIBase, cid)
	body, err := c.post(ctx, url, map[string]any{"message": in})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Message SentMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	if resp.Message.ID == "" {
		return nil, fmt.Errorf("send message: no message id in response")
	}
	if resp.Message.CID == "" {
		resp.Message.CID = cid
	}
	return &resp.Message, nil
}

// SendEvent emits a side-channel event (indicator update or clear).
func (c *Client) SendEvent(ctx context.Context, ev *Event) error {
	url := fmt.Sprintf("%s/channels/%s/event", c.config.APIBase, ev.CID)
	_, err := c.post(ctx, url, map[string]any{"event": ev})
	return err
}

// PartialUpdateMessage replaces selected fields of an existing message.
func (c *Client) PartialUpdateMessage(ctx context.Context, messageID string, set map[string]any) error {
	url := fmt.Sprintf("%s/messages/%s", c.config.APIBase, messageID)
	_, err := c.post(ctx, url, map[string]any{"set": set})
	return err
}

// post sends a JSON payload, retrying on rate limits.
func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt == 2 {
				return nil, fmt.Errorf("chat request: %w", err)
			}
			time.Sleep(time.Second)
			continue
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			var rateLimited struct {
				RetryAfter float64 `json:"retry_after"`
			}
			json.Unmarshal(respBody, &rateLimited)
			wait := time.Duration(rateLimited.RetryAfter * float64(time.Second))
			if wait <= 0 {
				wait = time.Second
			}
			slog.Warn("Chat API rate limited", "retry_after", wait)
			time.Sleep(wait)
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("chat API error %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}
	return nil, fmt.Errorf("chat: max retries exceeded")
}

func (c *Client) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}

		var ev MessageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("Invalid JSON from chat stream", "err", err)
			continue
		}
		if ev.Type != EventMessageNew {
			continue
		}
		c.dispatch(ctx, &ev)
	}
}

// dispatch fans a new-message event out to the channel's subscribers,
// one goroutine per handler so a slow completion never blocks the read loop.
func (c *Client) dispatch(ctx context.Context, ev *MessageEvent) {
	c.mu.RLock()
	handlers := make([]MessageHandler, 0, len(c.subs[ev.CID]))
	for _, h := range c.subs[ev.CID] {
		handlers = append(handlers, h)
	}
	c.mu.RUnlock()

	for _, h := range handlers {
		go h(ctx, ev)
	}
}

func (c *Client) authHeader() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.config.APIKey)
	return h
}
