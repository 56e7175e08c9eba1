// ABOUTME: Audio input package for capturing audio into a ring
// ABOUTME: Provides Input interface and malgo, JACK and generated-source backends
// Package input provides audio capture backends.
//
// Every backend pushes interleaved float32 frames into an
// rtio.Float32Writer. Capture callbacks never block: when the ring is full
// the frames that do not fit are dropped and counted as an overrun.
//
// Example:
//
//	in, err := input.New("malgo")
//	err = in.Open(format, writer)
//	defer in.Close()
package input
