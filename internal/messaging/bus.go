package messaging

import (
	"context"
	"sync"
)

const defaultBusBuffer = 64

// Bus is an in-process message channel with a single consumer.
// Publishing never blocks: without a subscriber, or with a full buffer,
// the message is dropped.
type Bus struct {
	mu         sync.RWMutex
	ch         chan Message
	subscribed bool
	closed     bool
}

// NewBus creates a Bus buffering up to size messages. size <= 0 uses a default.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = defaultBusBuffer
	}
	return &Bus{ch: make(chan Message, size)}
}

// Subscribe returns the channel the coordinator consumes.
// The channel is closed by Close.
func (b *Bus) Subscribe() <-chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribed = true
	return b.ch
}

// Publish queues msg for the subscriber.
func (b *Bus) Publish(msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed || !b.subscribed {
		return ErrNoReceiver
	}

	select {
	case b.ch <- msg:
		return nil
	default:
		// Subscriber is behind; skip rather than block the sender.
		return ErrDropped
	}
}

// Send implements Sender.
func (b *Bus) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Publish(msg)
}

// Close stops the bus. Further messages are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.ch)
}
