package diarize

import "strings"

// Segment is a contiguous run of speech attributed to the accepted
// speaker. Timestamps are relative to the start of the analyzed region.
type Segment struct {
	StartMS       int     `json:"start_ms" msgpack:"start_ms"`
	EndMS         int     `json:"end_ms" msgpack:"end_ms"`
	Text          string  `json:"text" msgpack:"text"`
	AvgConfidence float64 `json:"avg_conf" msgpack:"avg_conf"`
}

// DurationMS returns the segment's duration.
func (s Segment) DurationMS() int {
	return s.EndMS - s.StartMS
}

// BuildSegments groups attributed words into utterance segments and
// filters out noise. It is shared by both attribution strategies.
//
// Words are grouped in time order; a new segment starts whenever the gap
// between the previous word's end and the next word's start exceeds
// cfg.GapMS. Each segment's timestamps are re-based by subtracting
// regionStart so the output is relative to the analyzed region. Segments
// are kept only if their duration is at least cfg.MinDurationMS AND their
// space-joined text has at least cfg.MinChars characters; everything else
// is diarization noise. Kept segments carry the mean confidence of their
// words.
//
// The output preserves chronological order; segments are never reordered
// or merged non-adjacently. Re-feeding a kept segment's words reproduces
// the same segment.
func BuildSegments(words []Word, regionStart int, cfg Config) []Segment {
	words = sortedByStart(words)

	var groups [][]Word
	var cur []Word
	lastEnd := -1
	for _, w := range words {
		if lastEnd < 0 || w.StartMS-lastEnd <= cfg.GapMS {
			cur = append(cur, w)
		} else {
			groups = append(groups, cur)
			cur = []Word{w}
		}
		lastEnd = w.EndMS
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}

	var kept []Segment
	for _, g := range groups {
		start := g[0].StartMS - regionStart
		end := g[len(g)-1].EndMS - regionStart
		texts := make([]string, len(g))
		for i, w := range g {
			texts[i] = w.Text
		}
		text := strings.Join(texts, " ")

		if end-start < cfg.MinDurationMS || len(text) < cfg.MinChars {
			continue
		}

		var conf float64
		for _, w := range g {
			conf += w.Confidence
		}
		kept = append(kept, Segment{
			StartMS:       start,
			EndMS:         end,
			Text:          text,
			AvgConfidence: conf / float64(len(g)),
		})
	}
	return kept
}
