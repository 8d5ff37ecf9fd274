package diarize

import (
	"encoding/json"
	"sort"
)

// Word is one diarized token from the STT provider.
//
// Timestamps are milliseconds from the start of the transcribed audio;
// StartMS is inclusive, EndMS exclusive. Speaker is the provider-assigned
// diarization label (e.g. "SPEAKER_00"); it is session-local and carries
// no identity across recordings.
type Word struct {
	StartMS    int     `json:"start_ms"`
	EndMS      int     `json:"end_ms"`
	Speaker    string  `json:"speaker"`
	Confidence float64 `json:"confidence"`
	Text       string  `json:"text"`
}

// UnmarshalJSON decodes a word, defaulting a missing confidence to 1.0.
// Providers omit the field for words they do not score.
func (w *Word) UnmarshalJSON(data []byte) error {
	var raw struct {
		StartMS    int      `json:"start_ms"`
		EndMS      int      `json:"end_ms"`
		Speaker    string   `json:"speaker"`
		Confidence *float64 `json:"confidence"`
		Text       string   `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	w.StartMS = raw.StartMS
	w.EndMS = raw.EndMS
	w.Speaker = raw.Speaker
	w.Text = raw.Text
	if raw.Confidence != nil {
		w.Confidence = *raw.Confidence
	} else {
		w.Confidence = 1.0
	}
	return nil
}

// DurationMS returns the spoken duration of the word.
func (w Word) DurationMS() int {
	return w.EndMS - w.StartMS
}

// sortedByStart returns the words in ascending start-time order.
// The input is typically already sorted; the copy is only made when not.
// The sort is stable so equal start times keep their provider order.
func sortedByStart(words []Word) []Word {
	if sort.SliceIsSorted(words, func(i, j int) bool {
		return words[i].StartMS < words[j].StartMS
	}) {
		return words
	}
	cp := make([]Word, len(words))
	copy(cp, words)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].StartMS < cp[j].StartMS
	})
	return cp
}

// WordsForSpeaker returns the subsequence of words carrying the given
// diarization label, preserving order.
func WordsForSpeaker(words []Word, label string) []Word {
	var out []Word
	for _, w := range words {
		if w.Speaker == label {
			out = append(out, w)
		}
	}
	return out
}
