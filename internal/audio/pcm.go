package audio

import (
	"encoding/base64"
	"time"
)

// PCM helpers for the 16-bit little-endian mono/interleaved streams the live
// transport speaks. Float samples are normalized to [-1, 1].

const bytesPerSample = 2

// EncodePCM16 converts normalized float samples to little-endian PCM16 bytes.
// Samples outside [-1, 1] are clipped rather than wrapped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, f := range samples {
		v := int32(f * 32768)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		s := int16(v)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// DecodePCM16 converts little-endian PCM16 bytes back to normalized floats,
// de-interleaving frame-major data into one slice per channel. A trailing odd
// byte is dropped.
func DecodePCM16(data []byte, channels int) [][]float32 {
	if channels <= 0 {
		channels = 1
	}
	total := len(data) / bytesPerSample
	frames := total / channels

	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			i := (frame*channels + ch) * bytesPerSample
			s := int16(uint16(data[i]) | uint16(data[i+1])<<8)
			out[ch][frame] = float32(s) / 32768
		}
	}
	return out
}

// EncodeTransport wraps raw bytes in the text-safe form the websocket JSON
// frames carry.
func EncodeTransport(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeTransport is the inverse of EncodeTransport.
func DecodeTransport(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// PCMDuration reports how long a PCM16 byte stream plays for.
func PCMDuration(byteLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 || byteLen <= 0 {
		return 0
	}
	frames := byteLen / (bytesPerSample * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
