// ABOUTME: Audio sources that produce float32 PCM for the ring
// ABOUTME: Test tone, MP3, FLAC, HTTP MP3 and monitor stream sources plus a ring feeder
// Package source provides audio sources and a Feeder that pumps them into a
// ring through an rtio.Float32Writer.
//
// Sources read interleaved float32 samples in [-1, 1]. The Feeder runs on an
// ordinary goroutine and waits for room in the ring, so the real-time side
// only ever reads.
//
// Example:
//
//	src, err := source.Open(ctx, "track.flac", true)
//	feeder := source.NewFeeder(src, writer, source.FeederConfig{TargetRate: 48000})
//	err = feeder.Run(ctx)
package source
