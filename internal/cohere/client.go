package cohere

import (
	"context"
	"errors"
	"fmt"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"

	"github.com/mgomes/genie/internal/relay"
)

type Client struct {
	client     *cohereclient.Client
	model      string
	embedModel string
	embedDim   int
}

func NewClient(apiKey, model, baseURL, embedModel string, embedDim int) *Client {
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithBaseURL(baseURL),
	)
	return &Client{
		client:     client,
		model:      model,
		embedModel: embedModel,
		embedDim:   embedDim,
	}
}

func (c *Client) ValidateAPIKey(ctx context.Context) error {
	_, err := c.client.Models.List(ctx, &cohere.ModelsListRequest{})
	if err != nil {
		return fmt.Errorf("invalid API key: %w", err)
	}
	return nil
}

// StreamGenerate opens a streaming chat completion with the prompt as
// the sole user message. The returned stream yields one chunk per
// server event; events without a content delta yield empty chunks.
func (c *Client) StreamGenerate(ctx context.Context, prompt string) (relay.ChunkStream, error) {
	stream, err := c.client.V2.ChatStream(ctx, &cohere.V2ChatStreamRequest{
		Model: c.model,
		Messages: cohere.ChatMessages{
			{
				Role: "user",
				User: &cohere.UserMessageV2{Content: &cohere.UserMessageV2Content{
					String: prompt,
				}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat stream request failed: %w", err)
	}

	return &chatStream{stream: stream}, nil
}

type chatStream struct {
	stream *core.Stream[cohere.V2ChatStreamResponse]
}

func (s *chatStream) Recv() (relay.Chunk, error) {
	event, err := s.stream.Recv()
	if err != nil {
		// io.EOF marks a normal end-of-stream; pass it through.
		return relay.Chunk{}, err
	}

	var chunk relay.Chunk
	if text := contentDeltaText(event); text != "" {
		chunk.Texts = append(chunk.Texts, text)
	}
	return chunk, nil
}

func (s *chatStream) Close() error {
	return s.stream.Close()
}

func contentDeltaText(event cohere.V2ChatStreamResponse) string {
	delta := event.ContentDelta
	if delta == nil || delta.Delta == nil || delta.Delta.Message == nil {
		return ""
	}
	content := delta.Delta.Message.Content
	if content == nil || content.Text == nil {
		return ""
	}
	return *content.Text
}

var errNoEmbeddings = errors.New("no embeddings returned")

// EmbedQuery embeds a search query for similarity recall.
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := c.embed(ctx, []string{query}, cohere.EmbedInputTypeSearchQuery)
	if err != nil {
		if errors.Is(err, errNoEmbeddings) {
			return nil, fmt.Errorf("no embedding returned")
		}
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return embeddings[0], nil
}

// EmbedDocument embeds a stored generation for later recall.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.embed(ctx, []string{text}, cohere.EmbedInputTypeSearchDocument)
	if err != nil {
		if errors.Is(err, errNoEmbeddings) {
			return nil, err
		}
		return nil, fmt.Errorf("embed request failed: %w", err)
	}

	if len(embeddings) == 0 {
		return nil, errNoEmbeddings
	}

	return embeddings[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string, inputType cohere.EmbedInputType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddingTypes := []cohere.EmbeddingType{cohere.EmbeddingTypeFloat}
	outputDim := c.embedDim

	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:           texts,
		Model:           c.embedModel,
		InputType:       inputType,
		EmbeddingTypes:  embeddingTypes,
		OutputDimension: &outputDim,
	})
	if err != nil {
		return nil, err
	}

	if resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errNoEmbeddings
	}

	results := make([][]float32, len(resp.Embeddings.Float))
	for i, emb := range resp.Embeddings.Float {
		results[i] = float64sToFloat32s(emb)
	}

	return results, nil
}

func float64sToFloat32s(f64s []float64) []float32 {
	f32s := make([]float32, len(f64s))
	for i, v := range f64s {
		f32s[i] = float32(v)
	}
	return f32s
}
