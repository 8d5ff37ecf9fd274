// Package resampler provides sample rate conversion for audio clips.
//
// Speaker embedding models expect 16kHz input while chunks arrive at
// whatever rate the client recorded (44.1k/48k being typical), so every
// decoded clip passes through [ToRate] before feature extraction.
//
// The conversion uses a pure Go soxr-style polyphase resampler (no
// CGO/FFI dependencies) at high quality.
package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/doInfinitely/selective-speaker/pkg/audio/pcm"
)

// ToRate returns the clip converted to dstRate Hz. A clip already at
// dstRate is returned unchanged.
func ToRate(clip *pcm.Clip, dstRate int) (*pcm.Clip, error) {
	if clip.Rate == dstRate {
		return clip, nil
	}
	if clip.Rate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", clip.Rate, dstRate)
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(clip.Rate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: create: %w", err)
	}

	input := make([]float64, len(clip.Samples))
	for i, s := range clip.Samples {
		input[i] = float64(s)
	}
	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resampler: process: %w", err)
	}

	out := make([]float32, len(output))
	for i, s := range output {
		// The polyphase filter can overshoot slightly near full scale.
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		out[i] = float32(s)
	}
	return &pcm.Clip{Samples: out, Rate: dstRate}, nil
}
