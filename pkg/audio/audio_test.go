package audio

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
	"github.com/doInfinitely/selective-speaker/pkg/audio/wav"
)

func testClip(rate, n int) *pcm.Clip {
	c := &pcm.Clip{Samples: make([]float32, n), Rate: rate}
	for i := range c.Samples {
		c.Samples[i] = float32(0.3 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
	}
	return c
}

func TestDecodeSniffsWAV(t *testing.T) {
	var buf bytes.Buffer
	if err := wav.Encode(&buf, testClip(16000, 1600)); err != nil {
		t.Fatal(err)
	}

	clip, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if clip.Rate != 16000 || len(clip.Samples) != 1600 {
		t.Fatalf("got rate %d, %d samples", clip.Rate, len(clip.Samples))
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil))
	if !errors.Is(err, wav.ErrBadFormat) {
		t.Fatalf("expected ErrBadFormat, got %v", err)
	}
}

func TestDecodeAtRateNoResampleNeeded(t *testing.T) {
	var buf bytes.Buffer
	if err := wav.Encode(&buf, testClip(16000, 3200)); err != nil {
		t.Fatal(err)
	}

	clip, err := DecodeAtRate(&buf, 16000)
	if err != nil {
		t.Fatalf("DecodeAtRate: %v", err)
	}
	if clip.Rate != 16000 || len(clip.Samples) != 3200 {
		t.Fatalf("got rate %d, %d samples", clip.Rate, len(clip.Samples))
	}
}

func TestDecodeAtRateDownsamples(t *testing.T) {
	var buf bytes.Buffer
	if err := wav.Encode(&buf, testClip(48000, 48000)); err != nil { // 1s
		t.Fatal(err)
	}

	clip, err := DecodeAtRate(&buf, 16000)
	if err != nil {
		t.Fatalf("DecodeAtRate: %v", err)
	}
	if clip.Rate != 16000 {
		t.Fatalf("Rate = %d, want 16000", clip.Rate)
	}
	// A second of audio is a second of audio at any rate; allow the
	// resampler a little slack at the edges.
	if clip.DurationMS() < 950 || clip.DurationMS() > 1050 {
		t.Fatalf("DurationMS = %d, want ~1000", clip.DurationMS())
	}
	for i, s := range clip.Samples {
		if s > 1 || s < -1 {
			t.Fatalf("sample %d out of range: %v", i, s)
		}
	}
}
