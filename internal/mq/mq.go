package mq

import "context"

// Publisher sends messages to a named channel on some broker.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}
