package kafka

import "context"

// MessageBroker carries reminder events from the daily scan to the delivery loop.
type MessageBroker interface {
	SendMessage(ctx context.Context, key, value []byte) error
	ReadMessage(ctx context.Context) (key, value []byte, err error)
	Close() error
}
