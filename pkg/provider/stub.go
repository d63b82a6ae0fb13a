package provider

import (
	"context"
	"fmt"
	"time"
)

// StubImageProvider is a no-op provider for development; wire the real client
// when API keys are configured.
type StubImageProvider struct{}

func (s *StubImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	return fmt.Sprintf("https://example.com/stub/%d.png", time.Now().UnixNano()), nil
}

// StubChatProvider echoes the last user message.
type StubChatProvider struct{}

func (s *StubChatProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	return "echo: " + messages[len(messages)-1].Content, nil
}

func (s *StubChatProvider) Stream(ctx context.Context, messages []Message) (<-chan ChatChunk, error) {
	content, _ := s.Complete(ctx, messages)
	out := make(chan ChatChunk, 1)
	out <- ChatChunk{Content: content}
	close(out)
	return out, nil
}
