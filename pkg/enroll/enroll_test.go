package enroll_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
	"github.com/doInfinitely/selective-speaker/pkg/enroll"
	"github.com/doInfinitely/selective-speaker/pkg/kv"
	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

// fakeEmbedder returns a fixed embedding for any input.
type fakeEmbedder struct {
	emb []float32
	err error
}

func (f *fakeEmbedder) Embed(_ []float32) ([]float32, error) {
	return f.emb, f.err
}

func newTestRegistry(t *testing.T, emb enroll.Embedder) *enroll.Registry {
	t.Helper()
	store := kv.NewMemory(nil)
	t.Cleanup(func() { store.Close() })
	return enroll.NewRegistry(store, emb)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, &fakeEmbedder{emb: []float32{3, 4}})

	clip := &pcm.Clip{Samples: make([]float32, 16000), Rate: 16000}
	vp, err := r.Create(ctx, "user-1", clip)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if vp.ID == "" {
		t.Fatal("expected assigned ID")
	}
	if vp.DurationMS != 1000 {
		t.Fatalf("DurationMS = %d, want 1000", vp.DurationMS)
	}
	if vp.SampleRate != 16000 {
		t.Fatalf("SampleRate = %d, want 16000", vp.SampleRate)
	}

	got, err := r.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != vp.ID {
		t.Fatalf("Get ID = %s, want %s", got.ID, vp.ID)
	}
}

func TestPutNormalizesEmbedding(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	vp := &enroll.Voiceprint{
		UserID:    "user-1",
		Embedding: []float32{3, 4},
	}
	if err := r.Put(ctx, vp); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := r.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var norm float64
	for _, v := range got.Embedding {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1.0) > 1e-6 {
		t.Fatalf("stored embedding norm = %f, want 1.0", norm)
	}
	// 3-4-5 triangle: normalized components are 0.6 and 0.8.
	if math.Abs(float64(got.Embedding[0])-0.6) > 1e-6 {
		t.Fatalf("Embedding[0] = %f, want 0.6", got.Embedding[0])
	}
}

func TestReservedUserIDRejected(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, &fakeEmbedder{emb: []float32{3, 4}})

	// A ':' in the user ID would collide with the storage key separator;
	// it must surface as an input error, not reach the store.
	clip := &pcm.Clip{Samples: make([]float32, 16000), Rate: 16000}
	if _, err := r.Create(ctx, "team:alice", clip); !errors.Is(err, enroll.ErrInvalidUserID) {
		t.Fatalf("Create: expected ErrInvalidUserID, got %v", err)
	}
	err := r.Put(ctx, &enroll.Voiceprint{UserID: "team:alice", Embedding: []float32{3, 4}})
	if !errors.Is(err, enroll.ErrInvalidUserID) {
		t.Fatalf("Put: expected ErrInvalidUserID, got %v", err)
	}
	if err := r.Put(ctx, &enroll.Voiceprint{UserID: ""}); !errors.Is(err, enroll.ErrInvalidUserID) {
		t.Fatalf("Put empty: expected ErrInvalidUserID, got %v", err)
	}
	if _, err := r.Get(ctx, "team:alice"); !errors.Is(err, enroll.ErrInvalidUserID) {
		t.Fatalf("Get: expected ErrInvalidUserID, got %v", err)
	}
	if err := r.Delete(ctx, "team:alice", "some-id"); !errors.Is(err, enroll.ErrInvalidUserID) {
		t.Fatalf("Delete: expected ErrInvalidUserID, got %v", err)
	}
	if _, err := r.List(ctx, "team:alice"); !errors.Is(err, enroll.ErrInvalidUserID) {
		t.Fatalf("List: expected ErrInvalidUserID, got %v", err)
	}
}

func TestPutReservedVoiceprintID(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	err := r.Put(ctx, &enroll.Voiceprint{
		UserID:    "user-1",
		ID:        "a:b",
		Embedding: []float32{3, 4},
	})
	if err == nil {
		t.Fatal("expected error for reserved character in voiceprint ID")
	}
}

func TestPutZeroVector(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	vp := &enroll.Voiceprint{
		UserID:    "user-1",
		Embedding: []float32{0, 0, 0},
	}
	err := r.Put(ctx, vp)
	if !errors.Is(err, voiceprint.ErrZeroVector) {
		t.Fatalf("expected ErrZeroVector, got %v", err)
	}
}

func TestGetLatest(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	old := &enroll.Voiceprint{
		UserID:    "user-1",
		Embedding: []float32{1, 0},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	recent := &enroll.Voiceprint{
		UserID:    "user-1",
		Embedding: []float32{0, 1},
		CreatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	// Insert newest first to verify ordering comes from keys, not
	// insertion order.
	if err := r.Put(ctx, recent); err != nil {
		t.Fatalf("Put recent: %v", err)
	}
	if err := r.Put(ctx, old); err != nil {
		t.Fatalf("Put old: %v", err)
	}

	got, err := r.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != recent.ID {
		t.Fatalf("Get returned %s, want latest %s", got.ID, recent.ID)
	}
}

func TestGetNotEnrolled(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	_, err := r.Get(ctx, "nobody")
	if !errors.Is(err, enroll.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	vp := &enroll.Voiceprint{UserID: "user-1", Embedding: []float32{1, 0}}
	if err := r.Put(ctx, vp); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := r.Delete(ctx, "user-1", vp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := r.Get(ctx, "user-1")
	if !errors.Is(err, enroll.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled after delete, got %v", err)
	}

	// Deleting a missing ID is not an error.
	if err := r.Delete(ctx, "user-1", "no-such-id"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, nil)

	for i, at := range []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	} {
		vp := &enroll.Voiceprint{
			UserID:    "user-1",
			Embedding: []float32{1, float32(i)},
			CreatedAt: at,
		}
		if err := r.Put(ctx, vp); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	got, err := r.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List returned %d voiceprints, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Fatalf("List not in chronological order: %v after %v",
				got[i].CreatedAt, got[i-1].CreatedAt)
		}
	}
}

func TestCreateEmptyClip(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, &fakeEmbedder{emb: []float32{1, 0}})

	_, err := r.Create(ctx, "user-1", &pcm.Clip{Rate: 16000})
	if !errors.Is(err, voiceprint.ErrEmptySpan) {
		t.Fatalf("expected ErrEmptySpan, got %v", err)
	}
}
