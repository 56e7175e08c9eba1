// ABOUTME: Malgo-based audio capture implementation
// ABOUTME: Miniaudio's data callback writes float32 frames straight into the ring
package input

import (
	"fmt"
	"log"
	"sync"
	"unsafe"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
	"github.com/gen2brain/malgo"
)

// Malgo captures from the default input device
type Malgo struct {
	capturer

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	mu       sync.Mutex
}

// NewMalgo creates a new Malgo input
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Open initializes the capture device and starts writing to w
func (m *Malgo) Open(format audio.Format, w *rtio.Float32Writer) error {
	if err := format.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("capture device already open")
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	m.writer = w
	m.channels = format.Channels
	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			if len(pInputSamples) < 4 {
				return
			}
			m.capture(unsafe.Slice((*float32)(unsafe.Pointer(&pInputSamples[0])), len(pInputSamples)/4))
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	log.Printf("Audio input initialized: %s (malgo/F32)", format)
	return nil
}

// Close releases capture resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			log.Printf("Warning: capture stop error: %v", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}
