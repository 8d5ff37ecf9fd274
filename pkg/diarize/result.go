package diarize

import "fmt"

// Status classifies the outcome of an attribution decision.
type Status int

const (
	// StatusOK means a label was accepted. The kept segment list may
	// still be empty when the user simply did not speak in the subject
	// region. That is a success, not a failure.
	StatusOK Status = iota

	// StatusIndeterminate means the words could not be attributed to
	// the enrolled speaker: the enrollment region was empty or not
	// dominated by one label, or no label cleared the similarity
	// threshold. The Reason field names the specific cause.
	StatusIndeterminate

	// StatusIgnored means the event was consciously skipped (e.g. the
	// user has no enrollment on record).
	StatusIgnored

	// StatusAlreadyProcessed means this chunk's segments already exist.
	// Re-delivered events report this as a no-op success.
	StatusAlreadyProcessed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusIndeterminate:
		return "indeterminate"
	case StatusIgnored:
		return "ignored"
	case StatusAlreadyProcessed:
		return "already_processed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Reason codes for non-OK results.
const (
	// ReasonNoEnrollmentWords: no diarized words fell inside the
	// enrollment window at all.
	ReasonNoEnrollmentWords = "no_enrollment_words"

	// ReasonWeakEnrollmentDominance: the busiest label did not speak
	// for a large enough share of the enrollment window.
	ReasonWeakEnrollmentDominance = "weak_enrollment_dominance"

	// ReasonNoSpeakerMatch: no label's embedding cleared the cosine
	// similarity threshold against the enrollment embedding.
	ReasonNoSpeakerMatch = "no_speaker_match"

	// ReasonNoEnrollment: the user has no stored enrollment.
	ReasonNoEnrollment = "no_enrollment"
)

// Result is the outcome of one attribution decision.
//
// Exactly one of the two shapes applies: an OK result carries the accepted
// Label and the kept Segments; a non-OK result carries a Reason code and
// optional Debug detail. On weak enrollment dominance the tentative
// dominant Label is still reported for diagnostics.
type Result struct {
	Status Status

	// Reason is the machine-readable cause, set when Status is not OK.
	Reason string

	// Label is the accepted diarization label on OK, or the tentative
	// dominant label on weak dominance.
	Label string

	// Segments are the kept utterances, in chronological order.
	// Present only on OK; may be empty.
	Segments []Segment

	// Debug holds strategy-specific diagnostics (per-label speaking
	// shares, similarity scores). Never required for correctness.
	Debug map[string]any
}

// OK reports whether the result accepted a label.
func (r *Result) OK() bool {
	return r.Status == StatusOK
}
