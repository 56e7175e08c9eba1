// ABOUTME: Audio encoder package for encoding PCM to various formats
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode provides audio encoders for various codecs.
//
// Supports: PCM (16-bit and 24-bit), Opus
//
// All encoders accept interleaved float32 samples in [-1, 1], the format
// audio travels in through rtbridge rings.
//
// Example:
//
//	encoder, err := encode.New(format)
//	data, err := encoder.Encode(samples)
package encode
