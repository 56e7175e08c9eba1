// ABOUTME: FLAC file source
// ABOUTME: Decodes frames with mewkiz/flac and interleaves subframes as float32
package source

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file       *os.File
	stream     *flac.Stream
	loop       bool
	sampleRate int
	channels   int
	bitDepth   int
	scale      float32
	title      string
	artist     string
	album      string

	// block holds the current frame's samples per channel, pos the next
	// unread index into it
	block [][]int32
	pos   int
}

// NewFLAC opens a FLAC file and reads its Vorbis comment tags
func NewFLAC(filePath string, loop bool) (*FLACSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.Parse(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	s := &FLACSource{
		file:       f,
		stream:     stream,
		loop:       loop,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		scale:      1 / float32(int64(1)<<(info.BitsPerSample-1)),
		title:      titleFromPath(filePath),
		artist:     "Unknown Artist",
		album:      "Unknown Album",
	}
	s.readTags(stream.Blocks)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		s.title, s.sampleRate, s.channels, s.bitDepth)

	return s, nil
}

// readTags picks title, artist and album out of a Vorbis comment block
func (s *FLACSource) readTags(blocks []*meta.Block) {
	for _, block := range blocks {
		comment, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, tag := range comment.Tags {
			switch strings.ToUpper(tag[0]) {
			case "TITLE":
				s.title = tag[1]
			case "ARTIST":
				s.artist = tag[1]
			case "ALBUM":
				s.album = tag[1]
			}
		}
	}
}

func (s *FLACSource) Read(samples []float32) (int, error) {
	samplesRead := 0
	for samplesRead+s.channels <= len(samples) {
		if s.pos >= s.blockLen() {
			if err := s.nextBlock(); err != nil {
				if errors.Is(err, io.EOF) && samplesRead > 0 {
					return samplesRead, nil
				}
				return samplesRead, err
			}
			continue
		}
		samplesRead += s.drain(samples[samplesRead:])
	}
	return samplesRead, nil
}

// drain interleaves whole frames from the current block into dst
func (s *FLACSource) drain(dst []float32) int {
	frames := len(dst) / s.channels
	if left := s.blockLen() - s.pos; frames > left {
		frames = left
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < s.channels; ch++ {
			dst[i*s.channels+ch] = float32(s.block[ch][s.pos+i]) * s.scale
		}
	}
	s.pos += frames
	return frames * s.channels
}

func (s *FLACSource) blockLen() int {
	if len(s.block) == 0 {
		return 0
	}
	return len(s.block[0])
}

// nextBlock decodes the next frame, rewinding at the end when looping
func (s *FLACSource) nextBlock() error {
	frame, err := s.stream.ParseNext()
	if errors.Is(err, io.EOF) && s.loop {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		stream, decErr := flac.New(s.file)
		if decErr != nil {
			return fmt.Errorf("failed to create new stream: %w", decErr)
		}
		s.stream = stream
		frame, err = s.stream.ParseNext()
	}
	if err != nil {
		return err
	}

	if cap(s.block) < s.channels {
		s.block = make([][]int32, s.channels)
	}
	s.block = s.block[:s.channels]
	for ch := 0; ch < s.channels; ch++ {
		s.block[ch] = frame.Subframes[ch].Samples[:frame.BlockSize]
	}
	s.pos = 0
	return nil
}

func (s *FLACSource) SampleRate() int { return s.sampleRate }
func (s *FLACSource) Channels() int   { return s.channels }
func (s *FLACSource) Metadata() (string, string, string) {
	return s.title, s.artist, s.album
}
func (s *FLACSource) Close() error {
	return s.file.Close()
}
