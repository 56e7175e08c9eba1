// ABOUTME: Player application orchestration
// ABOUTME: Pumps a source through a ring into an output device and reports ring stats
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/rtbridge/internal/discovery"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/output"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/source"
	"github.com/Resonate-Protocol/rtbridge/pkg/ringbuf"
)

// PlayerConfig holds player configuration
type PlayerConfig struct {
	// Source is a file, http(s) MP3 URL or ws:// monitor; empty plays a tone
	Source string
	Loop   bool
	// Discover browses mDNS for a monitor when Source is empty
	Discover bool
	// Backend names an output backend (see output.Backends)
	Backend string
	// Output is used instead of Backend when set
	Output output.Output
	// BufferMs sizes the ring (default 200)
	BufferMs int
	// SampleRate forces the output rate; 0 uses the device or source rate
	SampleRate int
	LockMemory bool
}

// PlayerStats is a snapshot for status displays
type PlayerStats struct {
	Ring      ringbuf.State
	Underruns uint64
	Written   uint64
	Waits     uint64
}

// Player plays one source until it ends or Close is called
type Player struct {
	config PlayerConfig
	src    source.Source
	out    output.Output
	ring   *ring
	feeder *source.Feeder
	format audio.Format

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan error
}

// NewPlayer creates a player
func NewPlayer(config PlayerConfig) *Player {
	if config.BufferMs <= 0 {
		config.BufferMs = 200
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Player{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan error, 1),
	}
}

// Start opens the source and output and begins playback
func (p *Player) Start() error {
	location := p.config.Source
	if location == "" && p.config.Discover {
		ctx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
		info, err := discovery.FindMonitor(ctx)
		cancel()
		if err != nil {
			return err
		}
		location = info.URL()
	}

	src, err := source.Open(p.ctx, location, p.config.Loop)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	p.src = src

	out := p.config.Output
	if out == nil {
		if out, err = output.New(p.config.Backend); err != nil {
			return err
		}
	}
	p.out = out

	rate := src.SampleRate()
	if fixed, ok := out.(output.FixedRate); ok {
		if rate, err = fixed.DeviceRate(); err != nil {
			return err
		}
	} else if p.config.SampleRate > 0 {
		rate = p.config.SampleRate
	}
	p.format = audio.Format{SampleRate: rate, Channels: src.Channels()}

	p.ring, err = newRing(rate, src.Channels(), p.config.BufferMs, p.config.LockMemory)
	if err != nil {
		return err
	}
	p.feeder = source.NewFeeder(src, p.ring.writer, source.FeederConfig{TargetRate: rate})

	p.wg.Add(1)
	go p.feed()

	p.preroll()

	if err := out.Open(p.format, p.ring.reader); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	title, artist, _ := src.Metadata()
	log.Printf("Playing: %s - %s (%s)", artist, title, p.format)
	return nil
}

// preroll waits until half the ring is filled so the device starts with
// headroom
func (p *Player) preroll() {
	target := p.ring.producer.Capacity() / 2
	deadline := time.Now().Add(time.Duration(p.config.BufferMs) * time.Millisecond)
	for p.ring.State().Readable < target && time.Now().Before(deadline) {
		select {
		case <-p.ctx.Done():
			return
		case <-time.After(2 * time.Millisecond):
		}
	}
}

// feed runs the feeder, then waits for the device to drain the ring
func (p *Player) feed() {
	defer p.wg.Done()

	err := p.feeder.Run(p.ctx)
	if err == nil {
		for p.ring.State().Readable > 0 {
			select {
			case <-p.ctx.Done():
				p.done <- nil
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		log.Printf("Source finished")
	} else if errors.Is(err, context.Canceled) {
		err = nil
	}
	p.done <- err
}

// Done delivers nil when the source ends and plays out, or the feed error
func (p *Player) Done() <-chan error {
	return p.done
}

// Format returns the format written to the ring
func (p *Player) Format() audio.Format {
	return p.format
}

// SourceName returns "artist - title" or the configured location
func (p *Player) SourceName() string {
	if p.src == nil {
		return p.config.Source
	}
	title, artist, _ := p.src.Metadata()
	if artist != "" {
		return artist + " - " + title
	}
	return title
}

// Stats returns ring and device counters
func (p *Player) Stats() PlayerStats {
	var stats PlayerStats
	if p.ring != nil {
		stats.Ring = p.ring.State()
	}
	if p.feeder != nil {
		stats.Written = p.feeder.Written()
		stats.Waits = p.feeder.Waits()
	}
	if uc, ok := p.out.(output.UnderrunCounter); ok {
		stats.Underruns = uc.Underruns()
	}
	return stats
}

// SetVolume sets output volume when the backend supports it
func (p *Player) SetVolume(volume int) {
	if vc, ok := p.out.(output.VolumeControl); ok {
		vc.SetVolume(volume)
	}
}

// Mute sets mute state when the backend supports it
func (p *Player) Mute(muted bool) {
	if vc, ok := p.out.(output.VolumeControl); ok {
		vc.SetMuted(muted)
	}
}

// Close stops playback and releases the device, source and ring
func (p *Player) Close() error {
	p.cancel()

	if p.out != nil {
		if err := p.out.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
	}
	p.wg.Wait()

	var err error
	if p.src != nil {
		err = p.src.Close()
	}
	if p.ring != nil {
		p.ring.close()
		p.ring = nil
	}
	return err
}
