// ABOUTME: MP3 sources for local files and HTTP streams
// ABOUTME: Decodes with go-mp3 and converts its 16-bit stereo output to float32
package source

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Source reads from an MP3 file or HTTP body
type MP3Source struct {
	body       io.ReadCloser
	seeker     io.Seeker // nil for streams that cannot rewind
	decoder    *mp3.Decoder
	buf        []byte
	loop       bool
	sampleRate int
	title      string
	artist     string
}

// NewMP3 opens an MP3 file
func NewMP3(filePath string, loop bool) (*MP3Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := titleFromPath(filePath)
	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title, decoder.SampleRate())

	return &MP3Source{
		body:       f,
		seeker:     f,
		decoder:    decoder,
		loop:       loop,
		sampleRate: decoder.SampleRate(),
		title:      title,
		artist:     "Unknown Artist",
	}, nil
}

// NewHTTPMP3 streams MP3 from an HTTP URL. HTTP streams never loop.
func NewHTTPMP3(ctx context.Context, url string) (*MP3Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to decode MP3 stream: %w", err)
	}

	log.Printf("Streaming MP3 from HTTP: %s (sample rate: %d Hz)", url, decoder.SampleRate())

	return &MP3Source{
		body:       resp.Body,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
		title:      "HTTP Stream",
		artist:     "HTTP Stream",
	}, nil
}

func (s *MP3Source) Read(samples []float32) (int, error) {
	// go-mp3 outputs little-endian int16, 2 bytes per sample
	numBytes := len(samples) * 2
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := s.decoder.Read(buf)
	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.FloatFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}

	if errors.Is(err, io.EOF) {
		if !s.loop || s.seeker == nil {
			if numSamples > 0 {
				return numSamples, nil
			}
			return 0, io.EOF
		}
		if rewindErr := s.rewind(); rewindErr != nil {
			return numSamples, rewindErr
		}
		return numSamples, nil
	}
	if err != nil {
		return numSamples, fmt.Errorf("mp3 decode error: %w", err)
	}
	return numSamples, nil
}

// rewind restarts decoding from the start of the file
func (s *MP3Source) rewind() error {
	if _, err := s.seeker.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.body)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *MP3Source) SampleRate() int { return s.sampleRate }

// Channels is always 2, go-mp3 decodes to stereo
func (s *MP3Source) Channels() int { return 2 }

func (s *MP3Source) Metadata() (string, string, string) {
	return s.title, s.artist, "Unknown Album"
}

func (s *MP3Source) Close() error {
	return s.body.Close()
}
