package voiceprint_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

// captureModel records the samples it was asked to embed.
type captureModel struct {
	mu     sync.Mutex
	inputs [][]float32
	closed bool
}

func (m *captureModel) Extract(samples []float32) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	m.inputs = append(m.inputs, cp)
	return []float32{1, 0}, nil
}

func (m *captureModel) Dimension() int { return 2 }

func (m *captureModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestExtractorLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	model := &captureModel{}
	ex := voiceprint.NewExtractor(func() (voiceprint.Model, error) {
		loads.Add(1)
		return model, nil
	})
	defer ex.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ex.Embed([]float32{0.1, 0.2}); err != nil {
				t.Errorf("Embed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := loads.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestExtractorStickyLoadError(t *testing.T) {
	var loads atomic.Int32
	wantErr := errors.New("model file missing")
	ex := voiceprint.NewExtractor(func() (voiceprint.Model, error) {
		loads.Add(1)
		return nil, wantErr
	})

	for i := 0; i < 3; i++ {
		_, err := ex.Embed([]float32{0.1})
		if !errors.Is(err, wantErr) {
			t.Fatalf("Embed %d: got %v, want load error", i, err)
		}
	}
	if got := loads.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1 (error must be sticky)", got)
	}
}

func TestExtractorCloseWithoutUse(t *testing.T) {
	var loads atomic.Int32
	ex := voiceprint.NewExtractor(func() (voiceprint.Model, error) {
		loads.Add(1)
		return &captureModel{}, nil
	})

	if err := ex.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := loads.Load(); got != 0 {
		t.Fatalf("Close triggered %d loads, want 0", got)
	}
}

func TestExtractorEmbedEmpty(t *testing.T) {
	ex := voiceprint.NewStaticExtractor(&captureModel{})
	defer ex.Close()

	_, err := ex.Embed(nil)
	if !errors.Is(err, voiceprint.ErrEmptySpan) {
		t.Fatalf("expected ErrEmptySpan, got %v", err)
	}
}

func TestClipEmbedderCropsBySampleRate(t *testing.T) {
	model := &captureModel{}
	ex := voiceprint.NewStaticExtractor(model)
	defer ex.Close()

	// 2s at 1000Hz for easy index math: sample i covers millisecond i.
	samples := make([]float32, 2000)
	for i := range samples {
		samples[i] = float32(i)
	}
	ce := ex.ForClip(samples, 1000)

	if _, err := ce.EmbedSpan(context.Background(), 250, 750); err != nil {
		t.Fatalf("EmbedSpan: %v", err)
	}
	if len(model.inputs) != 1 {
		t.Fatalf("model called %d times, want 1", len(model.inputs))
	}
	got := model.inputs[0]
	if len(got) != 500 {
		t.Fatalf("cropped %d samples, want 500", len(got))
	}
	if got[0] != 250 || got[len(got)-1] != 749 {
		t.Fatalf("crop = [%v, %v], want [250, 749]", got[0], got[len(got)-1])
	}
}

func TestClipEmbedderClampsToClip(t *testing.T) {
	model := &captureModel{}
	ex := voiceprint.NewStaticExtractor(model)
	defer ex.Close()

	ce := ex.ForClip(make([]float32, 1000), 1000)

	// Span extends past the clip end: clamped, not an error.
	if _, err := ce.EmbedSpan(context.Background(), 500, 5000); err != nil {
		t.Fatalf("EmbedSpan: %v", err)
	}
	if len(model.inputs[0]) != 500 {
		t.Fatalf("cropped %d samples, want 500", len(model.inputs[0]))
	}
}

func TestClipEmbedderEmptySpan(t *testing.T) {
	ex := voiceprint.NewStaticExtractor(&captureModel{})
	defer ex.Close()
	ce := ex.ForClip(make([]float32, 1000), 1000)

	// Inverted span.
	_, err := ce.EmbedSpan(context.Background(), 700, 700)
	if !errors.Is(err, voiceprint.ErrEmptySpan) {
		t.Fatalf("expected ErrEmptySpan for inverted span, got %v", err)
	}

	// Entirely past the clip.
	_, err = ce.EmbedSpan(context.Background(), 5000, 6000)
	if !errors.Is(err, voiceprint.ErrEmptySpan) {
		t.Fatalf("expected ErrEmptySpan past clip end, got %v", err)
	}
}

func TestClipEmbedderContextCancelled(t *testing.T) {
	ex := voiceprint.NewStaticExtractor(&captureModel{})
	defer ex.Close()
	ce := ex.ForClip(make([]float32, 1000), 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ce.EmbedSpan(ctx, 0, 500)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
