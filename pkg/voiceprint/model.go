package voiceprint

// ModelSampleRate is the sample rate in Hz expected by speaker
// verification models. Audio at other rates must be resampled first.
const ModelSampleRate = 16000

// Model extracts speaker embedding vectors from raw audio.
//
// The input is mono float32 samples at 16kHz. The output is a dense
// unit-normalized float32 vector whose dimensionality is returned by
// Dimension().
//
// Typical implementations run a speaker-verification network (WeSpeaker
// ResNet, ECAPA-TDNN) via ONNX Runtime. Networks that emit one embedding
// per sliding window must reduce to a single vector by element-wise mean
// across windows before normalizing, never last-window or max-pool, so
// the vector summarizes the whole span.
//
// # Audio Requirements
//
//   - Sample rate: 16000 Hz
//   - Channels: 1 (mono)
//   - Minimum duration: ~400ms for a meaningful embedding
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Multiple goroutines
// may call Extract simultaneously.
type Model interface {
	// Extract computes a speaker embedding from mono 16kHz samples.
	// Returns a unit-normalized float32 vector of length Dimension().
	Extract(samples []float32) ([]float32, error)

	// Dimension returns the dimensionality of the embedding vectors
	// produced by Extract (e.g., 512).
	Dimension() int

	// Close releases any resources held by the model (e.g., the ONNX
	// session).
	Close() error
}
