package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(apiBase string) *Client {
	return NewClient(Config{APIBase: apiBase, APIKey: "chat-key"})
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/channels/messaging:general/message", r.URL.Path)
		require.Equal(t, "Bearer chat-key", r.Header.Get("Authorization"))

		var payload struct {
			Message MessageInput `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "", payload.Message.Text)
		assert.True(t, payload.Message.AIGenerated)

		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"id": "m-1", "cid": "messaging:general"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	sent, err := c.SendMessage(context.Background(), "messaging:general", &MessageInput{AIGenerated: true})
	require.NoError(t, err)
	assert.Equal(t, "m-1", sent.ID)
	assert.Equal(t, "messaging:general", sent.CID)
}

func TestSendMessageMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": map[string]any{}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SendMessage(context.Background(), "messaging:general", &MessageInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message id")
}

func TestSendEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/channels/messaging:general/event", r.URL.Path)

		var payload struct {
			Event Event `json:"event"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, EventIndicatorUpdate, payload.Event.Type)
		assert.Equal(t, AIStateThinking, payload.Event.AIState)
		assert.Equal(t, "m-1", payload.Event.MessageID)

		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.SendEvent(context.Background(), &Event{
		Type:      EventIndicatorUpdate,
		CID:       "messaging:general",
		MessageID: "m-1",
		AIState:   AIStateThinking,
	})
	require.NoError(t, err)
}

func TestPartialUpdateMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages/m-1", r.URL.Path)

		var payload struct {
			Set map[string]any `json:"set"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Hello world", payload.Set["text"])

		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.PartialUpdateMessage(context.Background(), "m-1", map[string]any{"text": "Hello world"})
	require.NoError(t, err)
}

func TestRateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{"retry_after": 0.01})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"id": "m-1", "cid": "messaging:general"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	sent, err := c.SendMessage(context.Background(), "messaging:general", &MessageInput{})
	require.NoError(t, err)
	assert.Equal(t, "m-1", sent.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAPIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"not allowed"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	err := c.SendEvent(context.Background(), &Event{Type: EventIndicatorClear, CID: "messaging:general"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat API error 403")
}

func TestSubscribeDispatch(t *testing.T) {
	c := newTestClient("http://unused")

	var got []*MessageEvent
	done := make(chan struct{})
	id := c.Subscribe("messaging:general", func(ctx context.Context, ev *MessageEvent) {
		got = append(got, ev)
		close(done)
	})
	require.NotEmpty(t, id)

	c.dispatch(context.Background(), &MessageEvent{
		Type:    EventMessageNew,
		CID:     "messaging:general",
		Message: &Message{Text: "hi"},
	})
	<-done
	require.Len(t, got, 1)
	assert.Equal(t, "hi", got[0].Message.Text)

	// Other channels' events don't reach this subscriber.
	c.dispatch(context.Background(), &MessageEvent{Type: EventMessageNew, CID: "messaging:other"})
	assert.Len(t, got, 1)

	c.Unsubscribe("messaging:general", id)
	c.dispatch(context.Background(), &MessageEvent{
		Type:    EventMessageNew,
		CID:     "messaging:general",
		Message: &Message{Text: "again"},
	})
	assert.Len(t, got, 1)
}

func TestWritingTask(t *testing.T) {
	assert.Equal(t, "", (*Message)(nil).WritingTask())
	assert.Equal(t, "", (&Message{}).WritingTask())
	assert.Equal(t, "", (&Message{Custom: map[string]any{"writingTask": 7}}).WritingTask())
	assert.Equal(t, "blog intro", (&Message{Custom: map[string]any{"writingTask": "blog intro"}}).WritingTask())
}
