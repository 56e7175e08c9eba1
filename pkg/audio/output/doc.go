// ABOUTME: Audio output package for playing audio from a ring
// ABOUTME: Provides Output interface and malgo, oto, PortAudio and JACK backends
// Package output provides audio playback backends.
//
// Every backend pulls interleaved float32 samples from an
// rtio.Float32Reader on the device's own callback thread. The callback only
// performs non-blocking ring reads; when the ring runs dry the device plays
// silence and the underrun is counted.
//
// Backends: malgo (default), oto, PortAudio (build with -tags portaudio),
// JACK (build with -tags jack).
//
// Example:
//
//	out, err := output.New("malgo")
//	err = out.Open(format, reader)
//	defer out.Close()
package output
