// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and sample conversions between float32, 16-bit and 24-bit
package audio

import "fmt"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes an audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Validate checks that the format can be used for streaming
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	return nil
}

// SamplesFor returns the interleaved sample count for a duration in milliseconds
func (f Format) SamplesFor(ms int) int {
	return f.SampleRate * f.Channels * ms / 1000
}

// String returns a short description like "48000Hz/2ch"
func (f Format) String() string {
	if f.Codec != "" {
		return fmt.Sprintf("%s %dHz/%dch", f.Codec, f.SampleRate, f.Channels)
	}
	return fmt.Sprintf("%dHz/%dch", f.SampleRate, f.Channels)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	// Left-shift to position 16-bit value in upper bits
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	// Take lower 24 bits, pack little-endian
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	// Reconstruct 24-bit value and sign-extend to 32-bit
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF // Set upper 8 bits to 1 for negative values
	}
	return val
}

// FloatTo24Bit converts a float sample in [-1, 1] to the 24-bit int32 range, clipping
func FloatTo24Bit(sample float32) int32 {
	scaled := int64(float64(sample) * Max24Bit)
	if scaled > Max24Bit {
		scaled = Max24Bit
	} else if scaled < Min24Bit {
		scaled = Min24Bit
	}
	return int32(scaled)
}

// FloatFrom24Bit converts a 24-bit int32 sample to float in [-1, 1]
func FloatFrom24Bit(sample int32) float32 {
	return float32(float64(sample) / Max24Bit)
}

// FloatToInt16 converts a float sample in [-1, 1] to int16, clipping
func FloatToInt16(sample float32) int16 {
	return SampleToInt16(FloatTo24Bit(sample))
}

// FloatFromInt16 converts an int16 sample to float in [-1, 1]
func FloatFromInt16(sample int16) float32 {
	return float32(sample) / 32768
}
