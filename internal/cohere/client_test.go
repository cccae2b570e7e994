package cohere

import (
	"testing"

	cohere "github.com/cohere-ai/cohere-go/v2"
)

func deltaEvent(text *string) cohere.V2ChatStreamResponse {
	return cohere.V2ChatStreamResponse{
		Type: "content-delta",
		ContentDelta: &cohere.ChatContentDeltaEvent{
			Delta: &cohere.ChatContentDeltaEventDelta{
				Message: &cohere.ChatContentDeltaEventDeltaMessage{
					Content: &cohere.ChatContentDeltaEventDeltaMessageContent{
						Text: text,
					},
				},
			},
		},
	}
}

func TestContentDeltaText(t *testing.T) {
	text := "Hel"
	got := contentDeltaText(deltaEvent(&text))

	if got != "Hel" {
		t.Errorf("expected 'Hel', got '%s'", got)
	}
}

func TestContentDeltaTextNoDelta(t *testing.T) {
	event := cohere.V2ChatStreamResponse{
		Type:         "message-start",
		MessageStart: &cohere.ChatMessageStartEvent{},
	}

	if got := contentDeltaText(event); got != "" {
		t.Errorf("expected empty text for a non-delta event, got '%s'", got)
	}
}

func TestContentDeltaTextNilText(t *testing.T) {
	if got := contentDeltaText(deltaEvent(nil)); got != "" {
		t.Errorf("expected empty text when the delta carries none, got '%s'", got)
	}
}

func TestContentDeltaTextPartialChain(t *testing.T) {
	events := []cohere.V2ChatStreamResponse{
		{Type: "content-delta", ContentDelta: &cohere.ChatContentDeltaEvent{}},
		{Type: "content-delta", ContentDelta: &cohere.ChatContentDeltaEvent{
			Delta: &cohere.ChatContentDeltaEventDelta{},
		}},
		{Type: "content-delta", ContentDelta: &cohere.ChatContentDeltaEvent{
			Delta: &cohere.ChatContentDeltaEventDelta{
				Message: &cohere.ChatContentDeltaEventDeltaMessage{},
			},
		}},
	}

	for i, event := range events {
		if got := contentDeltaText(event); got != "" {
			t.Errorf("event %d: expected empty text for partial delta, got '%s'", i, got)
		}
	}
}
