package provider

import "context"

// ImageRequest mirrors the generation parameters the image API accepts.
type ImageRequest struct {
	Prompt    string `json:"prompt"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Seed      int64  `json:"seed"`
	UseSR     bool   `json:"use_sr"`
	UsePreLLM bool   `json:"use_pre_llm"`
}

// ImageProvider generates an image and returns its URL.
type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// Message follows the OpenAI chat format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatChunk is one streamed piece of a chat completion. Err is non-nil on the
// final chunk when the stream broke mid-way.
type ChatChunk struct {
	Content string
	Err     error
}

// ChatProvider calls an external chat completion API.
type ChatProvider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message) (<-chan ChatChunk, error)
}
