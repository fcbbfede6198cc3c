package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for chunk and query embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the width of text-embedding-3-small vectors
	DefaultEmbeddingDimensions = 1536
	// DefaultVisionModel answers prompts about images
	DefaultVisionModel = openai.GPT4oMini
	// MaxEmbeddingBatch caps the inputs sent in one embeddings request
	MaxEmbeddingBatch = 96
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrEmptyCompletion is returned when the vision model answers with no choices
	ErrEmptyCompletion = errors.New("vision model returned no choices")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatAPI defines the interface for multimodal chat completions
type ChatAPI interface {
	DescribeImage(ctx context.Context, prompt, imageURL string) (string, error)
}

// Client wraps the OpenAI API client
type Client struct {
	api        EmbeddingAPI
	chat       ChatAPI
	model      string
	dimensions int
}

type OpenAIAdapter struct {
	client      *openai.Client
	model       openai.EmbeddingModel
	dimensions  int
	visionModel string
}

func NewOpenAIAdapter(cfg Config) *OpenAIAdapter {
	model := cfg.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = DefaultVisionModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	adapter := &OpenAIAdapter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		visionModel: visionModel,
	}
	// Only the text-embedding-3 family accepts a requested width.
	if strings.HasPrefix(string(model), "text-embedding-3") {
		adapter.dimensions = cfg.EmbeddingDimensions
	}
	return adapter
}

// CreateEmbeddings calls the OpenAI API to create embeddings, returned in input order
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      a.model,
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

// DescribeImage sends the prompt and image to a vision-capable chat model
func (a *OpenAIAdapter) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	VisionModel         string
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := NewOpenAIAdapter(cfg)
	return &Client{
		api:        adapter,
		chat:       adapter,
		model:      string(adapter.model),
		dimensions: dimensions,
	}
}

// Model names the embedding model; cache entries are keyed by it.
func (c *Client) Model() string {
	return c.model
}

// GenerateEmbeddings embeds texts in sequential batches of at most
// MaxEmbeddingBatch, preserving input order.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if text == "" {
			return nil, ErrEmptyText
		}
	}

	expected := c.dimensions
	if expected <= 0 {
		expected = DefaultEmbeddingDimensions
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxEmbeddingBatch {
		end := start + MaxEmbeddingBatch
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := c.api.CreateEmbeddings(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding: %w", err)
		}
		for _, embedding := range batch {
			if len(embedding) != expected {
				return nil, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimensions, expected, len(embedding))
			}
		}
		out = append(out, batch...)
	}

	return out, nil
}

// DescribeImage asks the vision model about the image at imageURL, which may
// be a data URL.
func (c *Client) DescribeImage(ctx context.Context, prompt, imageURL string) (string, error) {
	if prompt == "" || imageURL == "" {
		return "", ErrEmptyText
	}
	answer, err := c.chat.DescribeImage(ctx, prompt, imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to describe image: %w", err)
	}
	return answer, nil
}
