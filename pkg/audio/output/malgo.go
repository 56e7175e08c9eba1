// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Miniaudio's data callback reads float32 frames straight from the ring
package output

import (
	"fmt"
	"log"
	"sync"
	"unsafe"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	renderer

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	mu       sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	m := &Malgo{}
	m.gain.volume.Store(100)
	return m
}

// Open initializes the playback device and starts pulling from r
func (m *Malgo) Open(format audio.Format, r *rtio.Float32Reader) error {
	if err := format.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		log.Printf("Format change (%s -> %s), reinitializing device", m.format, format)
		m.closeDevice()
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	m.reader = r
	m.channels = format.Channels
	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.render(floatView(pOutputSample))
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.format = format

	log.Printf("Audio output initialized: %s (malgo/F32)", format)
	return nil
}

// floatView reinterprets a device buffer of native-endian float32 samples
func floatView(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&buf[0])), len(buf)/4)
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: device stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
}
