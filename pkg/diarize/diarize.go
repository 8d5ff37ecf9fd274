// Package diarize attributes diarized transcript words to a single enrolled
// speaker and reconstructs clean utterance segments from the matching words.
//
// # Architecture
//
// The input is a word stream from an external diarizing STT provider: each
// word carries a start/end timestamp and a provider-assigned speaker label.
// Labels are session-local and carry no identity across calls, so the core
// problem is deciding which label(s) belong to the enrolled user. Two
// strategies implement the [Attributor] contract:
//
//   - [AnchoredMapper] assumes the recording is structured as
//     [enrollment region][gap][subject region] and picks the label that
//     dominates the enrollment region by speaking time.
//   - [EmbeddingMatcher] compares a stored enrollment voice embedding
//     against one embedding per observed label (computed from that label's
//     longest contiguous span) and picks the most cosine-similar label.
//
// Both strategies feed [BuildSegments], which groups the attributed words
// into gap-bounded utterances, re-bases timestamps to the analyzed region,
// and drops segments that are too short to be real speech.
//
// # Outcomes
//
// Attribution frequently fails for benign reasons (the user never spoke,
// diarization was too noisy to call). These are expected results, not
// errors: they are reported as a [Result] with a non-OK [Status] and a
// reason code. Errors are reserved for genuine faults such as an
// unavailable embedding model or undecodable audio.
package diarize

import (
	"context"
)

// Attributor decides which diarization label belongs to the enrolled
// speaker and returns the kept utterance segments.
//
// Implementations must be safe for concurrent use; all per-request state
// travels in the [Request].
type Attributor interface {
	// Attribute runs one attribution decision over the request's words.
	// A non-OK Result is a normal outcome; the error return is reserved
	// for infrastructure faults (model load, audio decode).
	Attribute(ctx context.Context, req Request) (*Result, error)
}

// Request carries the inputs for one attribution decision.
type Request struct {
	// Words is the diarized word stream, typically ascending by start
	// time. Out-of-order input is tolerated.
	Words []Word

	// EnrollmentMS is the duration of the leading enrollment region in
	// milliseconds. Used by AnchoredMapper; ignored by EmbeddingMatcher.
	EnrollmentMS int

	// Enrollment is the enrolled speaker's unit-normalized voice
	// embedding. Used by EmbeddingMatcher; ignored by AnchoredMapper.
	Enrollment []float32

	// Embedder computes voice embeddings for time spans of the audio
	// under analysis. Required by EmbeddingMatcher; ignored by
	// AnchoredMapper.
	Embedder SpanEmbedder
}

// SpanEmbedder computes a voice embedding for a time span of the audio
// under analysis. It is the strategy's window into the acoustic model;
// the audio resource itself is bound at construction time by the caller.
type SpanEmbedder interface {
	// EmbedSpan returns a unit-normalized embedding for [startMS, endMS)
	// of the bound audio. This may be slow (model inference); callers
	// must not hold exclusive resources across it.
	EmbedSpan(ctx context.Context, startMS, endMS int) ([]float32, error)
}
