// ABOUTME: Audio bridges between mono server ports and interleaved float32 rings
// ABOUTME: Output zero-fills on underrun, input drops whole frames on overrun
package rtclient

import (
	"sync/atomic"

	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// DefaultMaxFrames sizes bridge scratch space when no buffer size is known
const DefaultMaxFrames = 1024

// AudioStats counts what a bridge did. Counters are in samples except Cycles.
type AudioStats struct {
	Cycles    uint64
	Samples   uint64
	Underruns uint64 // cycles that could not be filled completely
	Overruns  uint64 // cycles that dropped input
	Dropped   uint64 // samples lost to overruns or missing from underruns
}

type audioCounters struct {
	cycles    atomic.Uint64
	samples   atomic.Uint64
	underruns atomic.Uint64
	overruns  atomic.Uint64
	dropped   atomic.Uint64
}

func (c *audioCounters) snapshot() AudioStats {
	return AudioStats{
		Cycles:    c.cycles.Load(),
		Samples:   c.samples.Load(),
		Underruns: c.underruns.Load(),
		Overruns:  c.overruns.Load(),
		Dropped:   c.dropped.Load(),
	}
}

// AudioOutBridge plays an interleaved ring through one port per channel
type AudioOutBridge struct {
	r         *rtio.Float32Reader
	ports     []AudioBuffer
	scratch   []float32
	maxFrames int
	stats     audioCounters
}

// NewAudioOutBridge reads len(ports)-channel audio from r. maxFrames sizes
// the scratch buffer; longer cycles are processed in pieces.
func NewAudioOutBridge(r *rtio.Float32Reader, maxFrames int, ports ...AudioBuffer) *AudioOutBridge {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &AudioOutBridge{
		r:         r,
		ports:     ports,
		scratch:   make([]float32, maxFrames*len(ports)),
		maxFrames: maxFrames,
	}
}

// Process fills every port for this cycle
func (b *AudioOutBridge) Process(nframes uint32) int {
	channels := len(b.ports)
	if channels == 0 {
		return 0
	}

	short := false
	for done := 0; done < int(nframes); {
		frames := int(nframes) - done
		if frames > b.maxFrames {
			frames = b.maxFrames
		}
		chunk := b.scratch[:frames*channels]
		got := b.r.FillFrames(chunk, channels)
		if got < len(chunk) {
			short = true
			b.stats.dropped.Add(uint64(len(chunk) - got))
		}
		b.stats.samples.Add(uint64(got))

		for ch, port := range b.ports {
			out := port.Samples(nframes)[done : done+frames]
			for i := range out {
				out[i] = chunk[i*channels+ch]
			}
		}
		done += frames
	}

	if short {
		b.stats.underruns.Add(1)
	}
	b.stats.cycles.Add(1)
	return 0
}

// Stats returns the bridge counters
func (b *AudioOutBridge) Stats() AudioStats {
	return b.stats.snapshot()
}

// AudioInBridge records one port per channel into an interleaved ring
type AudioInBridge struct {
	w         *rtio.Float32Writer
	ports     []AudioBuffer
	scratch   []float32
	maxFrames int
	stats     audioCounters
}

// NewAudioInBridge writes len(ports)-channel audio to w
func NewAudioInBridge(w *rtio.Float32Writer, maxFrames int, ports ...AudioBuffer) *AudioInBridge {
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	return &AudioInBridge{
		w:         w,
		ports:     ports,
		scratch:   make([]float32, maxFrames*len(ports)),
		maxFrames: maxFrames,
	}
}

// Process copies this cycle's input into the ring. Only whole frames are
// written so channels stay aligned after an overrun.
func (b *AudioInBridge) Process(nframes uint32) int {
	channels := len(b.ports)
	if channels == 0 {
		return 0
	}

	dropped := 0
	for done := 0; done < int(nframes); {
		frames := int(nframes) - done
		if frames > b.maxFrames {
			frames = b.maxFrames
		}

		fit := b.w.WritableSamples() / channels
		if fit > frames {
			fit = frames
		}
		dropped += (frames - fit) * channels

		if fit > 0 {
			chunk := b.scratch[:fit*channels]
			for ch, port := range b.ports {
				in := port.Samples(nframes)[done : done+fit]
				for i, s := range in {
					chunk[i*channels+ch] = s
				}
			}
			b.stats.samples.Add(uint64(b.w.WriteSamples(chunk)))
		}
		done += frames
	}

	if dropped > 0 {
		b.stats.overruns.Add(1)
		b.stats.dropped.Add(uint64(dropped))
	}
	b.stats.cycles.Add(1)
	return 0
}

// Stats returns the bridge counters
func (b *AudioInBridge) Stats() AudioStats {
	return b.stats.snapshot()
}
