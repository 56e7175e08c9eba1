// ABOUTME: JACK capture built on rtclient
// ABOUTME: Registers one input port per channel and interleaves them into the ring
package input

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtclient"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// JACKConfig configures the JACK input
type JACKConfig struct {
	// ClientName defaults to a unique "rtbridge-xxxxxxxx"
	ClientName string
	// Connect links system:capture_N to in_N after activation
	Connect bool
}

// JACK captures from a JACK client
type JACK struct {
	config JACKConfig
	client *rtclient.Client
	bridge *rtclient.AudioInBridge
}

// NewJACK creates a JACK input
func NewJACK(config JACKConfig) *JACK {
	return &JACK{config: config}
}

func (j *JACK) ensureClient() error {
	if j.client != nil {
		return nil
	}
	client, err := rtclient.Open(rtclient.Config{
		Name:          j.config.ClientName,
		UniqueSuffix:  j.config.ClientName == "",
		NoStartServer: true,
	})
	if err != nil {
		return err
	}
	j.client = client
	return nil
}

// abort closes a half-opened client so Open can be retried
func (j *JACK) abort(err error) error {
	if cerr := j.client.Close(); cerr != nil {
		log.Printf("Warning: closing JACK client: %v", cerr)
	}
	j.client = nil
	j.bridge = nil
	return err
}

// DeviceRate opens the client if needed and returns the server rate
func (j *JACK) DeviceRate() (int, error) {
	if err := j.ensureClient(); err != nil {
		return 0, err
	}
	return j.client.SampleRate(), nil
}

// Open registers ports and starts capture. The JACK server rate must match
// format.SampleRate.
func (j *JACK) Open(format audio.Format, w *rtio.Float32Writer) error {
	if err := format.Validate(); err != nil {
		return err
	}
	if j.bridge != nil {
		return fmt.Errorf("JACK input already open")
	}
	if err := j.ensureClient(); err != nil {
		return err
	}
	client := j.client

	if rate := client.SampleRate(); rate != format.SampleRate {
		return j.abort(fmt.Errorf("JACK runs at %d Hz, capture wants %d Hz", rate, format.SampleRate))
	}

	ports := make([]rtclient.AudioBuffer, format.Channels)
	names := make([]string, format.Channels)
	for ch := range ports {
		port, err := client.RegisterAudioIn(fmt.Sprintf("in_%d", ch+1))
		if err != nil {
			return j.abort(err)
		}
		ports[ch] = port
		names[ch] = port.Name()
	}

	j.bridge = rtclient.NewAudioInBridge(w, client.BufferSize(), ports...)
	client.Dispatcher().Register(j.bridge, rtclient.WithTag("capture"))

	if err := client.Activate(); err != nil {
		return j.abort(err)
	}

	if j.config.Connect {
		for ch, name := range names {
			src := fmt.Sprintf("system:capture_%d", ch+1)
			if err := client.Connect(src, name); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}

	log.Printf("Audio input initialized: %s (jack/%s)", format, client.Name())
	return nil
}

// Overruns returns how many samples were dropped on a full ring
func (j *JACK) Overruns() uint64 {
	if j.bridge == nil {
		return 0
	}
	return j.bridge.Stats().Dropped
}

// Close deactivates and closes the client
func (j *JACK) Close() error {
	if j.client == nil {
		return nil
	}
	err := j.client.Close()
	j.client = nil
	j.bridge = nil
	return err
}
