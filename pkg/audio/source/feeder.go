// ABOUTME: Feeder pumps a Source into a ring through a Float32Writer
// ABOUTME: Waits out back-pressure by polling and optionally resamples to the sink rate
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio/resample"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// FeederConfig tunes a Feeder
type FeederConfig struct {
	// ChunkMs is how much source audio is read at once (default 20)
	ChunkMs int
	// TargetRate resamples to this rate when non-zero and different from the source
	TargetRate int
	// PollInterval is the wait between attempts while the ring is full (default 2ms)
	PollInterval time.Duration
}

// Feeder copies audio from a Source into a ring
type Feeder struct {
	src       Source
	w         *rtio.Float32Writer
	config    FeederConfig
	resampler *resample.Resampler
	channels  int
	in        []float32
	out       []float32

	written atomic.Uint64
	waits   atomic.Uint64
}

// NewFeeder creates a feeder writing src into w
func NewFeeder(src Source, w *rtio.Float32Writer, config FeederConfig) *Feeder {
	if config.ChunkMs <= 0 {
		config.ChunkMs = 20
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 2 * time.Millisecond
	}

	channels := max(src.Channels(), 1)
	frames := src.SampleRate() * config.ChunkMs / 1000
	if frames < 1 {
		frames = 1
	}

	f := &Feeder{
		src:      src,
		w:        w,
		config:   config,
		channels: channels,
		in:       make([]float32, frames*channels),
	}

	if config.TargetRate > 0 && config.TargetRate != src.SampleRate() {
		f.resampler = resample.New(src.SampleRate(), config.TargetRate, channels)
		f.out = make([]float32, f.resampler.OutputSamplesNeeded(len(f.in)))
		log.Printf("Resampling %d Hz -> %d Hz", src.SampleRate(), config.TargetRate)
	}

	return f
}

// SampleRate returns the rate of the samples written to the ring
func (f *Feeder) SampleRate() int {
	if f.resampler != nil {
		return f.config.TargetRate
	}
	return f.src.SampleRate()
}

// Written returns the number of samples committed to the ring so far
func (f *Feeder) Written() uint64 {
	return f.written.Load()
}

// Waits returns how many times the feeder found the ring full
func (f *Feeder) Waits() uint64 {
	return f.waits.Load()
}

// Run feeds until the source ends (returns nil), ctx is cancelled (returns
// ctx.Err()) or the source fails.
func (f *Feeder) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	var pending []float32
	eof := false

	for {
		if len(pending) == 0 {
			if eof {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			n, err := f.src.Read(f.in)
			if errors.Is(err, io.EOF) {
				eof = true
			} else if err != nil {
				return fmt.Errorf("source read: %w", err)
			}
			if partial := n % f.channels; partial != 0 {
				log.Printf("Dropping %d samples of a partial frame", partial)
				n -= partial
			}
			pending = f.convert(f.in[:n])
			if n == 0 && !eof {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
			continue
		}

		n := f.w.WriteFrames(pending, f.channels)
		pending = pending[n:]
		f.written.Add(uint64(n))

		if len(pending) > 0 {
			f.waits.Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

// convert resamples when configured
func (f *Feeder) convert(samples []float32) []float32 {
	if f.resampler == nil || len(samples) == 0 {
		return samples
	}
	n := f.resampler.Resample(samples, f.out)
	return f.out[:n]
}
