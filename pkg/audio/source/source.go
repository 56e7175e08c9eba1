// ABOUTME: Source interface and constructor selecting a source by path or URL
// ABOUTME: Empty path gives a test tone, ws:// a monitor stream, http(s):// streamed MP3
package source

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Default output parameters for generated audio
const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

// Source provides PCM audio samples
type Source interface {
	// Read fills samples with interleaved float32 PCM and returns how many
	// were written. io.EOF marks the end of a finite source.
	Read(samples []float32) (int, error)
	// SampleRate returns the sample rate of the audio
	SampleRate() int
	// Channels returns the number of channels
	Channels() int
	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)
	// Close closes the audio source
	Close() error
}

// Open creates a source from a file path or URL. Files loop when loop is set.
func Open(ctx context.Context, pathOrURL string, loop bool) (Source, error) {
	if pathOrURL == "" {
		return NewTestTone(DefaultSampleRate, DefaultChannels), nil
	}

	if u, err := url.Parse(pathOrURL); err == nil && u.Host != "" {
		switch u.Scheme {
		case "ws":
			log.Printf("Streaming from monitor: %s", u.Host)
			return NewStream(ctx, StreamConfig{ServerAddr: u.Host, Path: u.Path})
		case "http", "https":
			log.Printf("Streaming from HTTP URL: %s", pathOrURL)
			return NewHTTPMP3(ctx, pathOrURL)
		}
	}

	if _, err := os.Stat(pathOrURL); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", pathOrURL)
	}

	ext := strings.ToLower(filepath.Ext(pathOrURL))
	switch ext {
	case ".mp3":
		return NewMP3(pathOrURL, loop)
	case ".flac":
		return NewFLAC(pathOrURL, loop)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}

// titleFromPath uses the file name without extension as a title
func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
