package voiceprint

import (
	"context"
	"sync"

	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
)

// ModelLoader constructs a [Model]. Called at most once per Extractor.
type ModelLoader func() (Model, error)

// Extractor produces voice embeddings on demand, loading the underlying
// model lazily on first use so process start stays cheap. The loaded
// handle is shared by all subsequent calls; initialization is guarded so
// concurrent first callers trigger exactly one load.
//
// A load failure is sticky: every later call reports the same error
// rather than retrying, since a missing model file is misconfiguration,
// not a transient condition.
type Extractor struct {
	load ModelLoader

	once  sync.Once
	model Model
	err   error
}

// NewExtractor creates an Extractor around a lazily-invoked loader.
func NewExtractor(load ModelLoader) *Extractor {
	return &Extractor{load: load}
}

// NewStaticExtractor wraps an already-constructed model. Used in tests
// with fake models and by callers that manage loading themselves.
func NewStaticExtractor(m Model) *Extractor {
	e := &Extractor{}
	e.once.Do(func() { e.model = m })
	return e
}

func (e *Extractor) modelHandle() (Model, error) {
	e.once.Do(func() {
		e.model, e.err = e.load()
	})
	return e.model, e.err
}

// Embed computes a unit-normalized embedding for an entire clip of mono
// 16kHz samples.
func (e *Extractor) Embed(samples []float32) ([]float32, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySpan
	}
	m, err := e.modelHandle()
	if err != nil {
		return nil, err
	}
	return m.Extract(samples)
}

// Close releases the model if it was ever loaded. A never-used Extractor
// closes without triggering a load; the consumed once also prevents any
// load after Close.
func (e *Extractor) Close() error {
	e.once.Do(func() {})
	if e.model != nil {
		return e.model.Close()
	}
	return nil
}

// ForClip binds the extractor to one decoded clip, yielding a
// ClipEmbedder that can embed arbitrary time spans of it. sampleRate is
// the rate of the provided samples (expected 16000 for standard models).
func (e *Extractor) ForClip(samples []float32, sampleRate int) *ClipEmbedder {
	return &ClipEmbedder{ex: e, clip: &pcm.Clip{Samples: samples, Rate: sampleRate}}
}

// ClipEmbedder embeds time spans of a single decoded audio clip. It
// exists for the duration of one attribution decision; nothing it
// computes is persisted.
type ClipEmbedder struct {
	ex   *Extractor
	clip *pcm.Clip
}

// EmbedSpan computes an embedding for [startMS, endMS) of the clip.
// Spans outside the clip are clamped; a span with no samples reports
// ErrEmptySpan.
func (c *ClipEmbedder) EmbedSpan(ctx context.Context, startMS, endMS int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if endMS <= startMS {
		return nil, ErrEmptySpan
	}
	span := c.clip.CropMS(startMS, endMS)
	if len(span.Samples) == 0 {
		return nil, ErrEmptySpan
	}
	return c.ex.Embed(span.Samples)
}
