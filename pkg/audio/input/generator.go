// ABOUTME: Generated input that plays a Source into the ring in real time
// ABOUTME: Paces reads with a ticker so a file or tone behaves like a capture device
package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/source"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// DefaultChunkDuration is the period of a Generator tick
const DefaultChunkDuration = 20 * time.Millisecond

// Generator writes one chunk of a Source per tick
type Generator struct {
	capturer

	src    source.Source
	period time.Duration
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGenerator creates an input driven by src. A zero period uses
// DefaultChunkDuration.
func NewGenerator(src source.Source, period time.Duration) *Generator {
	if period <= 0 {
		period = DefaultChunkDuration
	}
	return &Generator{src: src, period: period}
}

// Open starts the generator goroutine. format must match the source.
func (g *Generator) Open(format audio.Format, w *rtio.Float32Writer) error {
	if err := format.Validate(); err != nil {
		return err
	}
	if format.SampleRate != g.src.SampleRate() || format.Channels != g.src.Channels() {
		return fmt.Errorf("source is %d Hz/%d ch, capture wants %s",
			g.src.SampleRate(), g.src.Channels(), format)
	}
	if g.cancel != nil {
		return fmt.Errorf("generator already open")
	}

	g.writer = w
	g.channels = format.Channels

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.wg.Add(1)
	go g.run(ctx, format)

	log.Printf("Audio input initialized: %s (generator)", format)
	return nil
}

func (g *Generator) run(ctx context.Context, format audio.Format) {
	defer g.wg.Done()

	frames := int(int64(format.SampleRate) * int64(g.period) / int64(time.Second))
	if frames < 1 {
		frames = 1
	}
	buf := make([]float32, frames*format.Channels)

	ticker := time.NewTicker(g.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := g.src.Read(buf)
			if n > 0 {
				g.capture(buf[:n])
			}
			if errors.Is(err, io.EOF) {
				log.Printf("Generator source finished")
				return
			}
			if err != nil {
				log.Printf("Generator read error: %v", err)
				return
			}
		}
	}
}

// Close stops the generator and closes its source
func (g *Generator) Close() error {
	if g.cancel != nil {
		g.cancel()
		g.wg.Wait()
		g.cancel = nil
	}
	return g.src.Close()
}
