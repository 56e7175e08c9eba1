// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and sample conversion functions
// Package audio provides fundamental audio types and utilities.
//
// Audio travels through rtbridge rings as interleaved float32 samples in
// [-1, 1], which is what JACK and the device backends use natively. This
// package converts between that representation and the integer formats used
// by files and encoders:
//   - float32 ↔ 16-bit
//   - float32 ↔ 24-bit (carried in int32)
//   - int32 ↔ packed 24-bit bytes
//
// Example:
//
//	format := audio.Format{
//	    SampleRate: 48000,
//	    Channels:   2,
//	}
//
//	// 20ms worth of interleaved samples
//	block := make([]float32, format.SamplesFor(20))
package audio
