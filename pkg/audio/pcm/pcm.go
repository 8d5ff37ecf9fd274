// Package pcm provides types and utilities for working with PCM (Pulse
// Code Modulation) audio data.
//
// The central type is [Clip]: decoded mono float32 samples at a known
// sample rate, with millisecond-addressed cropping. Decoders in the
// sibling wav and codec packages produce clips; the voice embedding
// pipeline consumes them.
package pcm

// Clip is decoded mono audio: float32 samples in [-1, 1] at Rate Hz.
type Clip struct {
	Samples []float32
	Rate    int
}

// DurationMS returns the clip length in milliseconds.
func (c *Clip) DurationMS() int {
	if c.Rate == 0 {
		return 0
	}
	return len(c.Samples) * 1000 / c.Rate
}

// CropMS returns the sub-clip covering [startMS, endMS), clamped to the
// clip bounds. The returned clip shares the underlying sample array.
func (c *Clip) CropMS(startMS, endMS int) *Clip {
	lo := startMS * c.Rate / 1000
	hi := endMS * c.Rate / 1000
	if lo < 0 {
		lo = 0
	}
	if hi > len(c.Samples) {
		hi = len(c.Samples)
	}
	if lo > hi {
		lo = hi
	}
	return &Clip{Samples: c.Samples[lo:hi], Rate: c.Rate}
}

// Amplify scales the clip's samples by factor in place, clamping to
// [-1, 1] to prevent wrap-around on re-encode.
func (c *Clip) Amplify(factor float32) {
	if factor == 1 {
		return
	}
	for i, s := range c.Samples {
		v := s * factor
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		c.Samples[i] = v
	}
}

// Int16ToFloat32 converts 16-bit signed samples to normalized float32.
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Float32ToInt16 converts normalized float32 samples to 16-bit signed,
// clamping out-of-range values.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32767.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// DownmixInt16 converts interleaved multi-channel 16-bit samples to mono
// by averaging the channels of each frame.
func DownmixInt16(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(samples[i*channels+ch])
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}
