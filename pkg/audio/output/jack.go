// ABOUTME: JACK output built on rtclient
// ABOUTME: Registers one port per channel and plays the ring through an AudioOutBridge
package output

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/rtbridge/pkg/audio"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtclient"
	"github.com/Resonate-Protocol/rtbridge/pkg/rtio"
)

// FixedRate is implemented by outputs whose device dictates the sample rate
type FixedRate interface {
	DeviceRate() (int, error)
}

// JACKConfig configures the JACK output
type JACKConfig struct {
	// ClientName defaults to a unique "rtbridge-xxxxxxxx"
	ClientName string
	// Connect links out_N to system:playback_N after activation
	Connect bool
}

// JACK plays through a JACK client
type JACK struct {
	config JACKConfig
	client *rtclient.Client
	bridge *rtclient.AudioOutBridge
}

// NewJACK creates a JACK output
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

// Open registers ports and starts playback
func (j *JACK) Open(format audio.Format, r *rtio.Float32Reader) error {
	if err := format.Validate(); err != nil {
		return err
	}
	if j.bridge != nil {
		return fmt.Errorf("JACK output already open")
	}
	if err := j.ensureClient(); err != nil {
		return err
	}
	if rate := j.client.SampleRate(); rate != format.SampleRate {
		return j.abort(fmt.Errorf("JACK runs at %d Hz, stream is %d Hz", rate, format.SampleRate))
	}

	ports := make([]rtclient.AudioBuffer, format.Channels)
	names := make([]string, format.Channels)
	for ch := range ports {
		port, err := j.client.RegisterAudioOut(fmt.Sprintf("out_%d", ch+1))
		if err != nil {
			return j.abort(err)
		}
		ports[ch] = port
		names[ch] = port.Name()
	}

	j.bridge = rtclient.NewAudioOutBridge(r, j.client.BufferSize(), ports...)
	j.client.Dispatcher().Register(j.bridge, rtclient.WithTag("playback"))

	if err := j.client.Activate(); err != nil {
		return j.abort(err)
	}

	if j.config.Connect {
		for ch, name := range names {
			dst := fmt.Sprintf("system:playback_%d", ch+1)
			if err := j.client.Connect(name, dst); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
	}

	log.Printf("Audio output initialized: %s (jack/%s)", format, j.client.Name())
	return nil
}

// Underruns returns how many cycles were padded with silence
func (j *JACK) Underruns() uint64 {
	if j.bridge == nil {
		return 0
	}
	return j.bridge.Stats().Underruns
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
