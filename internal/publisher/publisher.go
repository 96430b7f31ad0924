// Package publisher delivers a composed digest to its destination.
package publisher

import "context"

// Message is one digest ready for delivery. Chunks are already split to
// fit the destination's length limit; HeaderImage, when set, decorates
// the first chunk where the destination supports it.
type Message struct {
	Chunks      []string
	HeaderImage string
}

type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}
