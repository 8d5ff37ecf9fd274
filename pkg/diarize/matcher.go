package diarize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doInfinitely/selective-speaker/pkg/voiceprint"
)

// spanMergeGapMS is the largest silence bridged when finding a label's
// longest contiguous span. Independent of Config.GapMS: span finding wants
// a generous window of one voice for the model, segment building wants
// tight utterance boundaries.
const spanMergeGapMS = 1000

// EmbeddingMatcher attributes words by acoustic identity instead of
// recording protocol: it computes one voice embedding per diarization
// label (from that label's longest contiguous span) and accepts the label
// most cosine-similar to the stored enrollment embedding.
//
// Unlike [AnchoredMapper] it needs no enrollment region in the audio and
// is immune to label drift between regions, at the cost of per-label
// model inference.
//
// EmbeddingMatcher is stateless and safe for concurrent use; the audio
// under analysis arrives as a [SpanEmbedder] per call.
type EmbeddingMatcher struct {
	cfg Config
}

// NewEmbeddingMatcher creates an EmbeddingMatcher with the given settings.
func NewEmbeddingMatcher(cfg Config) *EmbeddingMatcher {
	return &EmbeddingMatcher{cfg: cfg}
}

// Attribute implements [Attributor] using req.Words, req.Enrollment and
// req.Embedder. The whole word stream is the subject region; timestamps
// are already relative to the analyzed chunk.
func (m *EmbeddingMatcher) Attribute(ctx context.Context, req Request) (*Result, error) {
	label, err := m.Match(ctx, req.Enrollment, req.Words, req.Embedder)
	if err != nil {
		return nil, err
	}
	if label == "" {
		return &Result{Status: StatusIndeterminate, Reason: ReasonNoSpeakerMatch}, nil
	}
	return &Result{
		Status:   StatusOK,
		Label:    label,
		Segments: BuildSegments(WordsForSpeaker(req.Words, label), 0, m.cfg),
	}, nil
}

// Match returns the diarization label whose voice matches the enrollment
// embedding, or "" when no label clears the similarity threshold. An
// empty match is an expected outcome, not an error; the error return is
// reserved for model and audio faults.
func (m *EmbeddingMatcher) Match(ctx context.Context, enrollment []float32, words []Word, embed SpanEmbedder) (string, error) {
	if embed == nil {
		return "", fmt.Errorf("diarize: no span embedder bound")
	}
	words = sortedByStart(words)

	// One embedding per label, computed from its longest contiguous
	// span. Labels with too little contiguous speech are skipped: a
	// short span gives the model nothing to fingerprint.
	type candidate struct {
		label     string
		embedding []float32
	}
	var candidates []candidate
	for _, ls := range speakerSpans(words) {
		if ls.durationMS() < m.cfg.MinSpeakerMS {
			slog.Debug("diarize: label span too short for embedding",
				"label", ls.label, "span_ms", ls.durationMS(), "min_ms", m.cfg.MinSpeakerMS)
			continue
		}
		emb, err := embed.EmbedSpan(ctx, ls.startMS, ls.endMS)
		if err != nil {
			return "", fmt.Errorf("diarize: embed span for %s: %w", ls.label, err)
		}
		candidates = append(candidates, candidate{label: ls.label, embedding: emb})
	}

	best := ""
	bestScore := m.cfg.SimilarityThreshold
	for _, c := range candidates {
		score, err := voiceprint.Cosine(enrollment, c.embedding)
		if err != nil {
			return "", fmt.Errorf("diarize: score %s: %w", c.label, err)
		}
		slog.Debug("diarize: label similarity", "label", c.label, "score", score)
		if score > bestScore {
			bestScore = score
			best = c.label
		}
	}
	return best, nil
}

// labelSpan is one diarization label's longest contiguous span.
type labelSpan struct {
	label   string
	startMS int
	endMS   int
}

func (s labelSpan) durationMS() int { return s.endMS - s.startMS }

// speakerSpans finds every label's longest contiguous span. Consecutive
// words of one label merge into a span while the silence between them
// stays under spanMergeGapMS. Spans are returned in order of each label's
// first appearance in the stream.
func speakerSpans(words []Word) []labelSpan {
	byLabel := make(map[string][]Word)
	var order []string
	for _, w := range words {
		if _, seen := byLabel[w.Speaker]; !seen {
			order = append(order, w.Speaker)
		}
		byLabel[w.Speaker] = append(byLabel[w.Speaker], w)
	}

	spans := make([]labelSpan, 0, len(order))
	for _, label := range order {
		ws := byLabel[label]
		longest := labelSpan{label: label, startMS: ws[0].StartMS, endMS: ws[0].EndMS}
		cur := longest
		for _, w := range ws[1:] {
			if w.StartMS-cur.endMS < spanMergeGapMS {
				cur.endMS = w.EndMS
				continue
			}
			if cur.durationMS() > longest.durationMS() {
				longest = cur
			}
			cur = labelSpan{label: label, startMS: w.StartMS, endMS: w.EndMS}
		}
		if cur.durationMS() > longest.durationMS() {
			longest = cur
		}
		spans = append(spans, longest)
	}
	return spans
}
