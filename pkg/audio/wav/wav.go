// Package wav decodes and encodes RIFF/WAVE files carrying 16-bit PCM.
//
// Decoding produces a mono [pcm.Clip] at the file's native rate;
// multi-channel input is downmixed by channel averaging. Encoding writes
// a clip back out as 16-bit mono PCM, used when exporting kept utterance
// segments for playback.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
)

// ErrBadFormat means the input is not a decodable WAV file.
var ErrBadFormat = errors.New("wav: bad format")

const (
	formatPCM = 1
)

// Decode reads a RIFF/WAVE stream and returns a mono clip at the file's
// sample rate. Only 16-bit integer PCM data is accepted; anything else
// reports ErrBadFormat.
func Decode(r io.Reader) (*pcm.Clip, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrBadFormat)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrBadFormat)
	}

	var (
		channels   int
		sampleRate int
		bitDepth   int
		haveFmt    bool
	)

	// Walk the chunk list: "fmt " must precede "data".
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: no data chunk", ErrBadFormat)
			}
			return nil, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrBadFormat)
			}
			if len(body) < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too small", ErrBadFormat)
			}
			audioFormat := int(binary.LittleEndian.Uint16(body[0:2]))
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitDepth = int(binary.LittleEndian.Uint16(body[14:16]))
			if audioFormat != formatPCM {
				return nil, fmt.Errorf("%w: audio format %d (want PCM)", ErrBadFormat, audioFormat)
			}
			if bitDepth != 16 {
				return nil, fmt.Errorf("%w: %d-bit samples (want 16)", ErrBadFormat, bitDepth)
			}
			if channels <= 0 || sampleRate <= 0 {
				return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrBadFormat, channels, sampleRate)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("%w: data chunk before fmt", ErrBadFormat)
			}
			return decodeData(r, size, channels, sampleRate)

		default:
			// Skip ancillary chunks (LIST, fact, cue, ...). Chunk
			// bodies are word-aligned.
			if size%2 != 0 {
				size++
			}
			if _, err := io.CopyN(io.Discard, r, size); err != nil {
				return nil, fmt.Errorf("%w: truncated %q chunk", ErrBadFormat, id)
			}
		}
	}
}

func decodeData(r io.Reader, size int64, channels, sampleRate int) (*pcm.Clip, error) {
	data := make([]byte, size)
	n, err := io.ReadFull(r, data)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("wav: read data: %w", err)
	}
	// Tolerate a short final chunk; some writers fix the header late.
	data = data[:n-n%2]

	ints := make([]int16, len(data)/2)
	for i := range ints {
		ints[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	ints = pcm.DownmixInt16(ints, channels)

	return &pcm.Clip{Samples: pcm.Int16ToFloat32(ints), Rate: sampleRate}, nil
}

// Encode writes the clip as a 16-bit mono PCM WAV stream.
func Encode(w io.Writer, clip *pcm.Clip) error {
	ints := pcm.Float32ToInt16(clip.Samples)
	dataSize := len(ints) * 2

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], formatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(clip.Rate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(clip.Rate*2)) // byte rate
	binary.LittleEndian.PutUint16(hdr[32:34], 2)                   // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16)                  // bit depth
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}

	buf := make([]byte, dataSize)
	for i, s := range ints {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("wav: write data: %w", err)
	}
	return nil
}
