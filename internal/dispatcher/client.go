package dispatcher

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

// outboxSize bounds how far behind a client may fall before being dropped.
const outboxSize = 256

// Client - one connected player, whatever transport carried them in. The
// reader goroutine owns Nickname; the outbox serializes everything written
// back to the socket.
type Client struct {
	ID       string
	Nickname string

	outbox    chan *protocol.Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient() *Client {
	return &Client{
		ID:     uuid.NewString(),
		outbox: make(chan *protocol.Message, outboxSize),
		done:   make(chan struct{}),
	}
}

// Send - enqueues a message for the write loop. A client whose outbox is full
// is dropped rather than allowed to stall the room broadcasting to it.
func (that *Client) Send(message *protocol.Message) {
	select {
	case that.outbox <- message:
	case <-that.done:
	default:
		that.Close()
	}
}

// Close - marks the client dead; safe to call from any goroutine, repeatedly.
func (that *Client) Close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// Outbox - the stream the transport's write loop drains.
func (that *Client) Outbox() <-chan *protocol.Message {
	return that.outbox
}

// Done - closed once the client is dead.
func (that *Client) Done() <-chan struct{} {
	return that.done
}
