package diarize

// Config holds the tunable parameters for attribution and segment
// construction. The zero value is not usable; start from [DefaultConfig].
type Config struct {
	// PadMS is the silence allowance inserted between the enrollment
	// region and the subject region when the audio was concatenated.
	// The subject region starts at enrollmentMS + PadMS.
	PadMS int `yaml:"pad_ms"`

	// Dominance is the fraction of the enrollment duration the busiest
	// label must have spoken for to be accepted as the user.
	Dominance float64 `yaml:"dominance"`

	// UseMajority selects the subject region's most frequent label
	// instead of the enrollment label. Diarization label identifiers
	// can silently swap between the enrollment and subject portions of
	// one recording; this trades anchor fidelity for drift robustness.
	UseMajority bool `yaml:"use_majority"`

	// GapMS is the largest inter-word silence kept inside one segment.
	GapMS int `yaml:"gap_ms"`

	// MinDurationMS drops segments shorter than this.
	MinDurationMS int `yaml:"min_duration_ms"`

	// MinChars drops segments whose joined text is shorter than this.
	MinChars int `yaml:"min_chars"`

	// MinSpeakerMS is the shortest contiguous span a label must have
	// for an embedding to be computed from it.
	MinSpeakerMS int `yaml:"min_speaker_ms"`

	// SimilarityThreshold is the cosine similarity a label embedding
	// must strictly exceed to match the enrollment embedding.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		PadMS:               0,
		Dominance:           0.8,
		UseMajority:         false,
		GapMS:               500,
		MinDurationMS:       1000,
		MinChars:            6,
		MinSpeakerMS:        2000,
		SimilarityThreshold: 0.65,
	}
}
