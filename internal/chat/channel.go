package chat

import "context"

// Channel is a handle to one chat conversation, bound to a client.
type Channel struct {
	CID string

	messenger Messenger
}

// NewChannel binds a channel handle to a messenger.
func NewChannel(m Messenger, cid string) *Channel {
	return &Channel{CID: cid, messenger: m}
}

// SendMessage creates a message on this channel.
func (ch *Channel) SendMessage(ctx context.Context, in *MessageInput) (*SentMessage, error) {
	return ch.messenger.SendMessage(ctx, ch.CID, in)
}

// SendEvent emits a side-channel event scoped to this channel.
func (ch *Channel) SendEvent(ctx context.Context, ev *Event) error {
	ev.CID = ch.CID
	return ch.messenger.SendEvent(ctx, ev)
}

// Subscribe registers a new-message handler for this channel.
func (ch *Channel) Subscribe(h MessageHandler) string {
	return ch.messenger.Subscribe(ch.CID, h)
}

// Unsubscribe removes a handler registered with Subscribe.
func (ch *Channel) Unsubscribe(subscriptionID string) {
	ch.messenger.Unsubscribe(ch.CID, subscriptionID)
}
