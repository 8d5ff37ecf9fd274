// Package voiceprint provides speaker voice embeddings and the similarity
// math used to compare them.
//
// # Architecture
//
// The pipeline turns audio into comparable identity vectors:
//
//  1. [Model].Extract: 16kHz mono float32 samples → unit-normalized embedding
//  2. [Cosine]: embedding × embedding → similarity in [-1, 1]
//
// A [Model] wraps one loaded speaker-verification network. Loading is
// expensive, so the [Extractor] defers it until first use and shares the
// handle across all subsequent calls; once loaded the model is effectively
// immutable and safe for concurrent inference.
//
// # Embeddings
//
// Every embedding produced or stored by this package is L2-normalized
// (‖v‖ = 1). Models with temporal output (one sub-embedding per sliding
// window) reduce by element-wise mean across windows, then normalize.
// [Cosine] still re-normalizes both sides defensively so persisted vectors
// with floating-point drift compare correctly.
package voiceprint

import "errors"

// Sentinel errors.
var (
	// ErrModelUnavailable means the embedding model could not be loaded,
	// typically because the model file is missing. This indicates
	// misconfiguration, not a per-request condition.
	ErrModelUnavailable = errors.New("voiceprint: model unavailable")

	// ErrEmptySpan means a requested audio span contains no samples.
	ErrEmptySpan = errors.New("voiceprint: empty audio span")

	// ErrZeroVector means a vector with zero norm cannot be normalized
	// or compared.
	ErrZeroVector = errors.New("voiceprint: zero vector")
)
