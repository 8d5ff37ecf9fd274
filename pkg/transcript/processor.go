package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/doInfinitely/selective-speaker/pkg/audio"
	"github.com/doInfinitely/selective-speaker/pkg/diarize"
	"github.com/doInfinitely/selective-speaker/pkg/enroll"
	"github.com/doInfinitely/selective-speaker/pkg/kv"
	"github.com/doInfinitely/selective-speaker/pkg/storage"
	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

// Strategy selects how the enrolled speaker is identified.
type Strategy string

const (
	// StrategyAnchored maps via the leading enrollment region of the
	// recording. Requires Event.EnrollmentMS.
	StrategyAnchored Strategy = "anchored"

	// StrategyEmbedding matches candidate speakers against the user's
	// stored voiceprint. Requires Event.AudioPath, a Registry, and an
	// Extractor.
	StrategyEmbedding Strategy = "embedding"
)

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	// Config holds the attribution tunables. Zero value means defaults.
	Config diarize.Config

	// Strategy selects the attribution strategy. Default is anchored.
	Strategy Strategy

	// Store persists kept segments and processed-chunk marks. Required.
	Store kv.Store

	// Files serves chunk audio by path. Required for StrategyEmbedding.
	Files storage.FileStore

	// Registry resolves stored voiceprints. Required for StrategyEmbedding.
	Registry *enroll.Registry

	// Extractor computes span embeddings. Required for StrategyEmbedding.
	Extractor *voiceprint.Extractor

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Processor handles transcription-completion events end to end.
//
// Process is idempotent per chunk: a processed mark is written in the same
// batch as the kept segments, so redelivered events short-circuit with
// StatusAlreadyProcessed.
type Processor struct {
	cfg      diarize.Config
	strategy Strategy
	store    kv.Store
	files    storage.FileStore
	registry *enroll.Registry
	ex       *voiceprint.Extractor
	log      *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	if opts.Store == nil {
		return nil, errors.New("transcript: ProcessorOptions.Store is required")
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyAnchored
	}
	if strategy == StrategyEmbedding {
		if opts.Files == nil || opts.Registry == nil || opts.Extractor == nil {
			return nil, errors.New("transcript: embedding strategy requires Files, Registry, and Extractor")
		}
	}
	cfg := opts.Config
	if cfg == (diarize.Config{}) {
		cfg = diarize.DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		cfg:      cfg,
		strategy: strategy,
		store:    opts.Store,
		files:    opts.Files,
		registry: opts.Registry,
		ex:       opts.Extractor,
		log:      log,
	}, nil
}

// Process runs attribution for one event and persists the outcome.
//
// Non-OK results are normal returns with reason codes; the error return is
// reserved for bad events and infrastructure faults. Redelivered events
// return StatusAlreadyProcessed without reprocessing.
func (p *Processor) Process(ctx context.Context, ev *Event) (*diarize.Result, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	// Duplicate suppression before any real work.
	_, err := p.store.Get(ctx, markKey(ev))
	switch {
	case err == nil:
		p.log.Info("chunk already processed",
			"transcript", ev.TranscriptID, "chunk", ev.ChunkID)
		return &diarize.Result{Status: diarize.StatusAlreadyProcessed}, nil
	case !errors.Is(err, kv.ErrNotFound):
		return nil, fmt.Errorf("transcript: check mark %s: %w", ev.ChunkID, err)
	}

	res, err := p.attribute(ctx, ev)
	if err != nil {
		return nil, err
	}

	if err := p.persist(ctx, ev, res); err != nil {
		return nil, err
	}

	p.log.Info("chunk processed",
		"transcript", ev.TranscriptID,
		"chunk", ev.ChunkID,
		"status", res.Status.String(),
		"reason", res.Reason,
		"label", res.Label,
		"segments", len(res.Segments))
	return res, nil
}

// attribute runs the configured strategy over the event's words.
func (p *Processor) attribute(ctx context.Context, ev *Event) (*diarize.Result, error) {
	switch p.strategy {
	case StrategyAnchored:
		if ev.EnrollmentMS <= 0 {
			return nil, fmt.Errorf("%w: missing enrollment_ms for anchored strategy", ErrBadEvent)
		}
		mapper := diarize.NewAnchoredMapper(p.cfg)
		return mapper.Attribute(ctx, diarize.Request{
			Words:        ev.Words,
			EnrollmentMS: ev.EnrollmentMS,
		})

	case StrategyEmbedding:
		if ev.AudioPath == "" {
			return nil, fmt.Errorf("%w: missing audio_path for embedding strategy", ErrBadEvent)
		}
		vp, err := p.registry.Get(ctx, ev.UserID)
		if errors.Is(err, enroll.ErrNotEnrolled) {
			return &diarize.Result{
				Status: diarize.StatusIndeterminate,
				Reason: diarize.ReasonNoEnrollment,
			}, nil
		}
		if err != nil {
			return nil, err
		}

		rc, err := p.files.Read(ctx, ev.AudioPath)
		if err != nil {
			return nil, fmt.Errorf("transcript: read audio %s: %w", ev.AudioPath, err)
		}
		defer rc.Close()
		clip, err := audio.DecodeAtRate(rc, voiceprint.ModelSampleRate)
		if err != nil {
			return nil, fmt.Errorf("transcript: decode audio %s: %w", ev.AudioPath, err)
		}

		matcher := diarize.NewEmbeddingMatcher(p.cfg)
		return matcher.Attribute(ctx, diarize.Request{
			Words:      ev.Words,
			Enrollment: vp.Embedding,
			Embedder:   p.ex.ForClip(clip.Samples, clip.Rate),
		})

	default:
		return nil, fmt.Errorf("transcript: unknown strategy %q", p.strategy)
	}
}

// persist lands the kept segments and the processed mark in one batch.
func (p *Processor) persist(ctx context.Context, ev *Event, res *diarize.Result) error {
	entries := make([]kv.Entry, 0, len(res.Segments)+1)
	for _, seg := range res.Segments {
		data, err := msgpack.Marshal(seg)
		if err != nil {
			return fmt.Errorf("transcript: encode segment: %w", err)
		}
		entries = append(entries, kv.Entry{Key: segmentKey(ev, seg), Value: data})
	}
	entries = append(entries, kv.Entry{Key: markKey(ev), Value: []byte(res.Status.String())})
	if err := p.store.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("transcript: persist chunk %s: %w", ev.ChunkID, err)
	}
	return nil
}

// Segments returns the kept segments previously stored for a chunk, in
// start-time order.
func (p *Processor) Segments(ctx context.Context, transcriptID, chunkID string) ([]diarize.Segment, error) {
	if hasReservedByte(transcriptID) || hasReservedByte(chunkID) {
		return nil, fmt.Errorf("%w: id contains reserved %q", ErrBadEvent, kv.DefaultSeparator)
	}
	var out []diarize.Segment
	prefix := kv.Key{transcriptID, "seg", chunkID}
	for entry, err := range p.store.List(ctx, prefix) {
		if err != nil {
			return nil, fmt.Errorf("transcript: list segments %s: %w", chunkID, err)
		}
		var seg diarize.Segment
		if err := msgpack.Unmarshal(entry.Value, &seg); err != nil {
			continue // skip malformed entries
		}
		out = append(out, seg)
	}
	return out, nil
}

func markKey(ev *Event) kv.Key {
	return kv.Key{ev.TranscriptID, "mark", ev.ChunkID}
}

func segmentKey(ev *Event, seg diarize.Segment) kv.Key {
	return kv.Key{ev.TranscriptID, "seg", ev.ChunkID, fmt.Sprintf("%06d", seg.StartMS)}
}
