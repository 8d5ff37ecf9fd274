// Package transcript orchestrates attribution for transcription-completion
// events. A Processor ties the pieces together: it validates the incoming
// event, suppresses duplicate deliveries with a per-chunk mark, selects an
// attribution strategy, and persists the kept segments.
package transcript

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doInfinitely/selective-speaker/pkg/diarize"
	"github.com/doInfinitely/selective-speaker/pkg/kv"
)

// ErrBadEvent is returned when an event is missing required metadata.
var ErrBadEvent = errors.New("transcript: bad event")

// Event is a transcription-completion notification for one audio chunk.
//
// EnrollmentMS is required by the anchored strategy; AudioPath is required
// by the embedding strategy.
type Event struct {
	TranscriptID string         `json:"transcript_id"`
	UserID       string         `json:"user_id"`
	ChunkID      string         `json:"chunk_id"`
	EnrollmentMS int            `json:"enrollment_ms,omitempty"`
	AudioPath    string         `json:"audio_path,omitempty"`
	Words        []diarize.Word `json:"words"`
}

// Validate checks the metadata every event must carry. Strategy-specific
// fields are checked by the Processor when the strategy needs them.
//
// IDs land in storage keys, so the key separator is reserved: an event
// whose IDs contain it is rejected here rather than reaching the store.
func (e *Event) Validate() error {
	switch {
	case e.TranscriptID == "":
		return fmt.Errorf("%w: missing transcript_id", ErrBadEvent)
	case e.UserID == "":
		return fmt.Errorf("%w: missing user_id", ErrBadEvent)
	case e.ChunkID == "":
		return fmt.Errorf("%w: missing chunk_id", ErrBadEvent)
	case hasReservedByte(e.TranscriptID):
		return fmt.Errorf("%w: transcript_id contains reserved %q", ErrBadEvent, kv.DefaultSeparator)
	case hasReservedByte(e.UserID):
		return fmt.Errorf("%w: user_id contains reserved %q", ErrBadEvent, kv.DefaultSeparator)
	case hasReservedByte(e.ChunkID):
		return fmt.Errorf("%w: chunk_id contains reserved %q", ErrBadEvent, kv.DefaultSeparator)
	}
	return nil
}

func hasReservedByte(s string) bool {
	return strings.IndexByte(s, kv.DefaultSeparator) >= 0
}
