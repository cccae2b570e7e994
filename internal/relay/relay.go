// Package relay turns a typed query into a stream of result snapshots
// backed by a remote text-generation call. It never touches the UI
// directly; everything observable goes through the injected Host.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultIcon is the image path attached to every snapshot unless a
// caller overrides it. Hosts that cannot render images ignore it.
const DefaultIcon = "assets/genie.png"

const (
	TitleMissingKey     = "Missing API Key"
	TitleNotInitialized = "API Client Not Initialized"
	TitleGenerate       = "Generate Text"
	TitleCancelled      = "Cancelled"
	TitleError          = "Error generating text"

	SubtitleGenerating = "Generating text..."
	SubtitleStreaming  = "Generating text (streaming)..."
	SubtitleCompleted  = "Generated Text (Click to copy)"
	SubtitleCancelled  = "Text generation was cancelled."
)

// Snapshot is the complete state of the single result row at one point
// in time. A new snapshot supersedes the previous one; snapshots are
// never mutated after being emitted.
type Snapshot struct {
	Title    string
	Subtitle string
	Icon     string

	// Action runs synchronously when the user selects a terminal
	// result (clipboard copy). AsyncAction starts the streaming
	// generation; the host invokes it off its event loop with a
	// cancellable context.
	Action      func() bool
	AsyncAction func(ctx context.Context) bool
}

// Chunk is one unit of streamed data, carrying zero or more textual
// fragments.
type Chunk struct {
	Texts []string
}

// ChunkStream yields chunks until io.EOF. Close releases the
// underlying transport; it is safe to call after an error.
type ChunkStream interface {
	Recv() (Chunk, error)
	Close() error
}

// Generator opens a streaming generation for a prompt.
type Generator interface {
	StreamGenerate(ctx context.Context, prompt string) (ChunkStream, error)
}

// Host is the launcher runtime the relay publishes into. NotifyResults
// must be safe to call from the streaming goroutine.
type Host interface {
	NotifyResults(ctx context.Context, query string, snapshots []Snapshot)
	CopyToClipboard(text string) error
}

// Recorder persists a completed generation. Optional; failures are
// ignored by the relay.
type Recorder interface {
	Record(ctx context.Context, prompt, output, model string) error
}

type Relay struct {
	apiKey string
	model  string
	gen    Generator
	host   Host
	rec    Recorder
	icon   string
}

func New(apiKey, model string, gen Generator, host Host) *Relay {
	return &Relay{
		apiKey: apiKey,
		model:  model,
		gen:    gen,
		host:   host,
		icon:   DefaultIcon,
	}
}

// SetRecorder attaches a recorder for completed generations.
func (r *Relay) SetRecorder(rec Recorder) {
	r.rec = rec
}

// HandleQuery maps a query to its initial result list. Synchronous and
// side-effect free; no network call happens until the returned
// snapshot's AsyncAction is invoked.
func (r *Relay) HandleQuery(ctx context.Context, query string) []Snapshot {
	if r.apiKey == "" {
		return []Snapshot{{
			Title:    TitleMissingKey,
			Subtitle: "Set COHERE_API_KEY in your environment and restart.",
			Icon:     r.icon,
		}}
	}

	if r.gen == nil {
		return []Snapshot{{
			Title:    TitleNotInitialized,
			Subtitle: "The chat client was not set up at startup. Check your configuration and restart.",
			Icon:     r.icon,
		}}
	}

	q := query
	return []Snapshot{{
		Title:    TitleGenerate,
		Subtitle: fmt.Sprintf("Generate text with %s: %s", r.model, q),
		Icon:     r.icon,
		AsyncAction: func(ctx context.Context) bool {
			return r.RunStreamingGeneration(ctx, q)
		},
	}}
}

// RunStreamingGeneration drives one generation to a terminal state,
// publishing a snapshot for every textual fragment received. The
// accumulator is owned by this invocation; concurrent invocations
// never share state. Cancellation is polled at chunk boundaries.
//
// The returned flag is not the user-facing success signal; the copy
// action on the final snapshot is. Every path returns false.
func (r *Relay) RunStreamingGeneration(ctx context.Context, query string) bool {
	r.notify(ctx, query, Snapshot{Title: "...", Subtitle: SubtitleGenerating})

	stream, err := r.gen.StreamGenerate(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			r.notifyCancelled(ctx, query)
			return false
		}
		r.notifyError(ctx, query, err)
		return false
	}
	defer stream.Close() //nolint:errcheck

	var buf strings.Builder
	for {
		if ctx.Err() != nil {
			r.notifyCancelled(ctx, query)
			return false
		}

		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// The transport reports an abort when the context is
			// cancelled mid-receive; that is a cancellation, not a
			// fault.
			if ctx.Err() != nil {
				r.notifyCancelled(ctx, query)
				return false
			}
			r.notifyError(ctx, query, err)
			return false
		}

		for _, text := range chunk.Texts {
			buf.WriteString(text)
			r.notify(ctx, query, Snapshot{Title: buf.String(), Subtitle: SubtitleStreaming})
		}
	}

	output := buf.String()
	r.notify(ctx, query, Snapshot{
		Title:    output,
		Subtitle: SubtitleCompleted,
		Action: func() bool {
			return r.host.CopyToClipboard(output) == nil
		},
	})

	if r.rec != nil {
		_ = r.rec.Record(ctx, query, output, r.model)
	}

	return false
}

func (r *Relay) notify(ctx context.Context, query string, snap Snapshot) {
	if snap.Icon == "" {
		snap.Icon = r.icon
	}
	r.host.NotifyResults(ctx, query, []Snapshot{snap})
}

func (r *Relay) notifyCancelled(ctx context.Context, query string) {
	r.notify(ctx, query, Snapshot{Title: TitleCancelled, Subtitle: SubtitleCancelled})
}

func (r *Relay) notifyError(ctx context.Context, query string, err error) {
	r.notify(ctx, query, Snapshot{Title: TitleError, Subtitle: err.Error()})
}
