// ABOUTME: Audio decoder package for codecs carried over the monitor stream
// ABOUTME: Provides Decoder interface and implementations for PCM and Opus
// Package decode provides audio decoders for the codecs rtbridge streams.
//
// Supports: PCM (16-bit and 24-bit), Opus
//
// All decoders implement the Decoder interface and output interleaved
// float32 samples in [-1, 1], ready for an rtio.Float32Writer.
//
// Example:
//
//	decoder, err := decode.New(format)
//	samples, err := decoder.Decode(audioData)
package decode
