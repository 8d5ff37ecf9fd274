package diarize

import "context"

// AnchoredMapper attributes words using the enrollment-anchored recording
// protocol: the audio is known to be [enrollment region][gap][subject
// region], with only the enrolled user speaking during enrollment. The
// label that dominates the enrollment region by speaking time is taken to
// be the user, without needing a precomputed voice embedding.
//
// Dominance is measured against the enrollment duration itself, not
// against the speech observed in the window. A user who spoke for only a
// small part of their enrollment slot fails the check even when nobody
// else spoke; that guards against accepting a label off a sliver of
// evidence.
//
// AnchoredMapper is a pure function of its inputs and is safe for
// concurrent use.
type AnchoredMapper struct {
	cfg Config
}

// NewAnchoredMapper creates an AnchoredMapper with the given settings.
func NewAnchoredMapper(cfg Config) *AnchoredMapper {
	return &AnchoredMapper{cfg: cfg}
}

// Attribute implements [Attributor] using req.Words and req.EnrollmentMS.
func (m *AnchoredMapper) Attribute(_ context.Context, req Request) (*Result, error) {
	return m.Map(req.Words, req.EnrollmentMS), nil
}

// Map runs the anchored mapping over the word stream. enrollMS is the
// duration of the leading enrollment region in milliseconds.
func (m *AnchoredMapper) Map(words []Word, enrollMS int) *Result {
	words = sortedByStart(words)

	// Accumulate speaking time per label inside the enrollment window.
	// Label order is tracked so ties break on first appearance.
	labelTime := make(map[string]int)
	var labelOrder []string
	for _, w := range words {
		if w.StartMS >= enrollMS {
			continue
		}
		if _, seen := labelTime[w.Speaker]; !seen {
			labelOrder = append(labelOrder, w.Speaker)
		}
		labelTime[w.Speaker] += w.DurationMS()
	}
	if len(labelTime) == 0 {
		return &Result{Status: StatusIndeterminate, Reason: ReasonNoEnrollmentWords}
	}

	dominant := labelOrder[0]
	for _, label := range labelOrder[1:] {
		if labelTime[label] > labelTime[dominant] {
			dominant = label
		}
	}

	// Shares are each label's fraction of the speech observed in the
	// window, summing to 1, while the dominance check below is against
	// the window duration itself.
	totalTime := 0
	for _, t := range labelTime {
		totalTime += t
	}
	shares := make(map[string]any, len(labelTime))
	for label, t := range labelTime {
		if totalTime > 0 {
			shares[label] = float64(t) / float64(totalTime)
		} else {
			shares[label] = 0.0
		}
	}

	if labelTime[dominant] < int(m.cfg.Dominance*float64(enrollMS)) {
		return &Result{
			Status: StatusIndeterminate,
			Reason: ReasonWeakEnrollmentDominance,
			Label:  dominant,
			Debug: map[string]any{
				"enrollment_shares": shares,
				"observed_ms":       totalTime,
			},
		}
	}

	// The subject region begins after the enrollment window plus the
	// configured silence pad.
	subjectStart := enrollMS + m.cfg.PadMS

	accepted := dominant
	if m.cfg.UseMajority {
		if majority, ok := majoritySpeaker(words, subjectStart); ok {
			accepted = majority
		}
	}

	var userWords []Word
	for _, w := range words {
		if w.Speaker == accepted && w.StartMS >= subjectStart {
			userWords = append(userWords, w)
		}
	}

	return &Result{
		Status:   StatusOK,
		Label:    accepted,
		Segments: BuildSegments(userWords, subjectStart, m.cfg),
	}
}

// majoritySpeaker returns the label with the most word occurrences at or
// after subjectStart. Ties break on the label first encountered in the
// stream, so the choice is deterministic for a given input order.
func majoritySpeaker(words []Word, subjectStart int) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if w.StartMS < subjectStart {
			continue
		}
		if _, seen := counts[w.Speaker]; !seen {
			order = append(order, w.Speaker)
		}
		counts[w.Speaker]++
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, label := range order[1:] {
		if counts[label] > counts[best] {
			best = label
		}
	}
	return best, true
}
