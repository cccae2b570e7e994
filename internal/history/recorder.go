package history

import (
	"context"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// Embedder produces a document embedding for a stored generation.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// Recorder saves completed generations to the store. The embedding is
// best-effort: a generation is kept even when embedding it fails, it
// just won't show up in similarity recall.
type Recorder struct {
	store    *Store
	embedder Embedder
	now      func() time.Time
}

func NewRecorder(store *Store, embedder Embedder) *Recorder {
	return &Recorder{
		store:    store,
		embedder: embedder,
		now:      time.Now,
	}
}

func (r *Recorder) Record(ctx context.Context, prompt, output, model string) error {
	id, err := r.store.Insert(prompt, output, model, r.now().Unix())
	if err != nil {
		return err
	}

	if r.embedder == nil {
		return nil
	}

	embedding, err := r.embedder.EmbedDocument(ctx, prompt)
	if err != nil {
		return nil
	}

	embBytes, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil
	}

	return r.store.InsertEmbedding(id, embBytes)
}
