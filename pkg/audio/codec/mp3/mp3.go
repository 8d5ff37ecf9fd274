// Package mp3 decodes MP3 streams to PCM clips.
//
// Mobile clients upload chunks in whatever format their recorder
// produces; MP3 is the common non-WAV case. Decoding is pure Go.
package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
)

// ErrBadFormat means the input is not a decodable MP3 stream.
var ErrBadFormat = errors.New("mp3: bad format")

// Decode reads an MP3 stream and returns a mono clip at the stream's
// sample rate. The decoder emits interleaved 16-bit stereo; the two
// channels are averaged down to mono.
func Decode(r io.Reader) (*pcm.Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	raw = raw[:len(raw)-len(raw)%4] // whole stereo frames only

	ints := make([]int16, len(raw)/2)
	for i := range ints {
		ints[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	ints = pcm.DownmixInt16(ints, 2)

	return &pcm.Clip{Samples: pcm.Int16ToFloat32(ints), Rate: dec.SampleRate()}, nil
}
