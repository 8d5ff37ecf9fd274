package audio

import (
	"bufio"
	"bytes"
	"io"

	"github.com/doInfinitely/selective-speaker/pkg/audio/codec/mp3"
	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
	"github.com/doInfinitely/selective-speaker/pkg/audio/resampler"
	"github.com/doInfinitely/selective-speaker/pkg/audio/wav"
)

// Decode sniffs the container format and decodes to a mono clip at the
// source's native rate. RIFF/WAVE input goes to the wav decoder;
// everything else is tried as MP3.
func Decode(r io.Reader) (*pcm.Clip, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil {
		return nil, wav.ErrBadFormat
	}
	if bytes.Equal(head, []byte("RIFF")) {
		return wav.Decode(br)
	}
	return mp3.Decode(br)
}

// DecodeAtRate decodes like [Decode] and resamples the result to
// rate Hz, the form the embedding pipeline consumes.
func DecodeAtRate(r io.Reader, rate int) (*pcm.Clip, error) {
	clip, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return resampler.ToRate(clip, rate)
}
