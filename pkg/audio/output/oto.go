// ABOUTME: Oto-based audio output implementation
// ABOUTME: Oto pulls little-endian float32 bytes through a non-blocking silence-padding reader
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	gain

	otoCtx  *oto.Context
	player  *oto.Player
	silence *rtio.SilenceReader
	format  audio.Format
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	o := &Oto{}
	o.gain.volume.Store(100)
	return o
}

// Open initializes the output device. Oto allows one context per process,
// so a second Open must use the same sample rate and channel count.
func (o *Oto) Open(format audio.Format, r *rtio.Float32Reader) error {
	if err := format.Validate(); err != nil {
		return err
	}

	if o.otoCtx != nil && (o.format.SampleRate != format.SampleRate || o.format.Channels != format.Channels) {
		return fmt.Errorf("oto cannot change format from %s to %s", o.format, format)
	}

	if o.otoCtx == nil {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatFloat32LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			return fmt.Errorf("failed to create oto context: %w", err)
		}
		<-readyChan
		o.otoCtx = ctx
	} else {
		o.otoCtx.Resume()
	}

	if o.player != nil {
		o.player.Close()
	}

	o.format = format
	o.silence = rtio.NewSilenceReader(r.Consumer(), rtio.SampleSize*format.Channels)
	o.player = o.otoCtx.NewPlayer(&gainReader{r: o.silence, gain: &o.gain})
	o.player.Play()

	log.Printf("Audio output initialized: %s (oto/float32)", format)
	return nil
}

// Underruns returns how many reads were padded with silence
func (o *Oto) Underruns() uint64 {
	if o.silence == nil {
		return 0
	}
	return o.silence.Underruns()
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Warning: oto player close error: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	return nil
}

// gainReader applies software volume to little-endian float32 bytes
type gainReader struct {
	r    io.Reader
	gain *gain
}

func (g *gainReader) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	m := g.gain.multiplier()
	if m == 1 {
		return n, err
	}
	for i := 0; i+rtio.SampleSize <= n; i += rtio.SampleSize {
		s := math.Float32frombits(binary.LittleEndian.Uint32(p[i:])) * m
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(s))
	}
	return n, err
}
