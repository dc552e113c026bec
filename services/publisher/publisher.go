package publisher

import "context"

// Publisher represents a service for publishing deal events
type Publisher interface {
	// Publish publishes a message under key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims published history to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// Nop discards every message.
type Nop struct{}

var _ Publisher = Nop{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, string, []byte) error { return nil }

// TrimStreams implements Publisher.
func (Nop) TrimStreams(context.Context) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }
