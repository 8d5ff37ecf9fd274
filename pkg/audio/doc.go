// Package audio provides audio decoding and sample processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - pcm: PCM sample clips, millisecond cropping, and int16/float32 conversion
//   - wav: RIFF/WAVE decoding and encoding
//   - codec/mp3: MP3 decoding
//   - resampler: sample rate conversion
//
// The common currency between sub-packages is [pcm.Clip]: decoded mono
// float32 samples at a known rate. Decoders produce clips; the resampler
// converts them to the 16kHz the embedding models expect.
package audio
