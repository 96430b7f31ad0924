package publisher

import (
	"context"
	"fmt"
	"strings"
)

// StdoutPublisher prints the digest to standard output. Useful for dry
// runs and local testing without a bot token.
type StdoutPublisher struct{}

func NewStdoutPublisher() *StdoutPublisher {
	return &StdoutPublisher{}
}

func (p *StdoutPublisher) Publish(ctx context.Context, msg *Message) error {
	for i, chunk := range msg.Chunks {
		if i > 0 {
			fmt.Println(strings.Repeat("-", 40))
		}
		fmt.Println(chunk)
	}
	return nil
}
