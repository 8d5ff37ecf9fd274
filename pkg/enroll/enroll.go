// Package enroll maintains enrollment voiceprints: per-user reference
// embeddings extracted from a known enrollment recording. The anchored
// mapper needs only the enrollment duration, while the embedding matcher
// compares candidate speakers against the stored embedding.
//
// Voiceprints are msgpack-encoded in a kv.Store under time-ordered keys,
// so the latest enrollment per user is the last entry in a prefix scan.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
	"github.com/doInfinitely/selective-speaker/pkg/kv"
	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

// ErrNotEnrolled is returned when a user has no stored voiceprint.
var ErrNotEnrolled = errors.New("enroll: user has no voiceprint")

// ErrInvalidUserID is returned for user IDs that are empty or contain the
// storage key separator. User IDs arrive from CLI arguments and event
// payloads and become key segments, so the separator is reserved.
var ErrInvalidUserID = errors.New("enroll: invalid user id")

func checkUserID(id string) error {
	if id == "" || strings.IndexByte(id, kv.DefaultSeparator) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}

// Voiceprint is a stored enrollment record for one user.
type Voiceprint struct {
	ID         string    `msgpack:"id"`
	UserID     string    `msgpack:"user_id"`
	Embedding  []float32 `msgpack:"embedding"`
	DurationMS int       `msgpack:"duration_ms"`
	SampleRate int       `msgpack:"sample_rate"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

// Embedder extracts a voice embedding from mono PCM samples.
// *voiceprint.Extractor satisfies this interface.
type Embedder interface {
	Embed(samples []float32) ([]float32, error)
}

// Registry stores and retrieves enrollment voiceprints.
type Registry struct {
	store kv.Store
	emb   Embedder
}

// NewRegistry creates a Registry backed by the given store.
// The embedder may be nil if only Put/Get/Delete are needed.
func NewRegistry(store kv.Store, emb Embedder) *Registry {
	return &Registry{store: store, emb: emb}
}

// Create extracts an embedding from the enrollment clip and stores a new
// voiceprint for the user. The clip should already be at the model's
// expected sample rate.
func (r *Registry) Create(ctx context.Context, userID string, clip *pcm.Clip) (*Voiceprint, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	if r.emb == nil {
		return nil, fmt.Errorf("enroll: create %s: no embedder configured", userID)
	}
	if clip == nil || len(clip.Samples) == 0 {
		return nil, fmt.Errorf("enroll: create %s: %w", userID, voiceprint.ErrEmptySpan)
	}
	emb, err := r.emb.Embed(clip.Samples)
	if err != nil {
		return nil, fmt.Errorf("enroll: create %s: %w", userID, err)
	}
	vp := &Voiceprint{
		UserID:     userID,
		Embedding:  emb,
		DurationMS: clip.DurationMS(),
		SampleRate: clip.Rate,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.Put(ctx, vp); err != nil {
		return nil, err
	}
	return vp, nil
}

// Put stores a voiceprint, assigning an ID if missing. The embedding is
// unit-normalized before storage so later cosine comparisons reduce to
// dot products.
func (r *Registry) Put(ctx context.Context, vp *Voiceprint) error {
	if err := checkUserID(vp.UserID); err != nil {
		return err
	}
	if strings.IndexByte(vp.ID, kv.DefaultSeparator) >= 0 {
		return fmt.Errorf("enroll: put %s: id contains reserved %q", vp.UserID, kv.DefaultSeparator)
	}
	if vp.ID == "" {
		vp.ID = uuid.NewString()
	}
	if vp.CreatedAt.IsZero() {
		vp.CreatedAt = time.Now().UTC()
	}
	norm, err := voiceprint.Normalize(vp.Embedding)
	if err != nil {
		return fmt.Errorf("enroll: put %s: %w", vp.UserID, err)
	}
	vp.Embedding = norm

	data, err := msgpack.Marshal(vp)
	if err != nil {
		return fmt.Errorf("enroll: put %s: %w", vp.UserID, err)
	}
	return r.store.Set(ctx, voiceprintKey(vp), data)
}

// Get returns the latest voiceprint for a user, or ErrNotEnrolled.
func (r *Registry) Get(ctx context.Context, userID string) (*Voiceprint, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	var latest *Voiceprint
	for entry, err := range r.store.List(ctx, kv.Key{"vp", userID}) {
		if err != nil {
			return nil, fmt.Errorf("enroll: get %s: %w", userID, err)
		}
		var vp Voiceprint
		if err := msgpack.Unmarshal(entry.Value, &vp); err != nil {
			continue // skip malformed entries
		}
		// Keys are time-ordered, so the last entry wins.
		latest = &vp
	}
	if latest == nil {
		return nil, fmt.Errorf("enroll: get %s: %w", userID, ErrNotEnrolled)
	}
	return latest, nil
}

// Delete removes a specific voiceprint by ID. Missing IDs are not an error.
func (r *Registry) Delete(ctx context.Context, userID, id string) error {
	if err := checkUserID(userID); err != nil {
		return err
	}
	for entry, err := range r.store.List(ctx, kv.Key{"vp", userID}) {
		if err != nil {
			return fmt.Errorf("enroll: delete %s: %w", userID, err)
		}
		var vp Voiceprint
		if err := msgpack.Unmarshal(entry.Value, &vp); err != nil {
			continue
		}
		if vp.ID == id {
			return r.store.Delete(ctx, entry.Key)
		}
	}
	return nil
}

// List returns all voiceprints for a user, oldest first.
func (r *Registry) List(ctx context.Context, userID string) ([]Voiceprint, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}
	var out []Voiceprint
	for entry, err := range r.store.List(ctx, kv.Key{"vp", userID}) {
		if err != nil {
			return nil, fmt.Errorf("enroll: list %s: %w", userID, err)
		}
		var vp Voiceprint
		if err := msgpack.Unmarshal(entry.Value, &vp); err != nil {
			continue
		}
		out = append(out, vp)
	}
	return out, nil
}

// voiceprintKey builds the time-ordered storage key for a voiceprint.
func voiceprintKey(vp *Voiceprint) kv.Key {
	return kv.Key{"vp", vp.UserID, fmt.Sprintf("%013d", vp.CreatedAt.UnixMilli()), vp.ID}
}
