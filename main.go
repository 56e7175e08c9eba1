// ABOUTME: Entry point for the rtbridge player
// ABOUTME: Parses CLI flags and plays a source through a lock-free ring to an audio device
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/rtbridge/internal/app"
	"github.com/Resonate-Protocol/rtbridge/internal/ui"
	"github.com/Resonate-Protocol/rtbridge/internal/version"
	"github.com/Resonate-Protocol/rtbridge/pkg/audio/output"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	src        = flag.String("source", "", "Audio file, http(s) MP3 URL or ws:// monitor (default: test tone)")
	loop       = flag.Bool("loop", false, "Loop file sources")
	discover   = flag.Bool("discover", false, "Find a monitor via mDNS when -source is empty")
	backend    = flag.String("output", "malgo", "Output backend: "+strings.Join(output.Backends, ", "))
	rate       = flag.Int("rate", 0, "Output sample rate (default: source or device rate)")
	bufferMs   = flag.Int("buffer-ms", 200, "Ring size in milliseconds")
	lockMemory = flag.Bool("lock", false, "Lock ring memory into RAM")
	logFile    = flag.String("log-file", "rtbridge.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s", version.String())

	player := app.NewPlayer(app.PlayerConfig{
		Source:     *src,
		Loop:       *loop,
		Discover:   *discover,
		Backend:    *backend,
		BufferMs:   *bufferMs,
		SampleRate: *rate,
		LockMemory: *lockMemory,
	})
	if err := player.Start(); err != nil {
		player.Close()
		log.Fatalf("Player failed to start: %v", err)
	}

	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl
	quit := make(chan struct{})
	var wg sync.WaitGroup

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg = ui.Run(version.Product, volumeCtrl)
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		wg.Add(2)
		go func() {
			defer wg.Done()
			handleVolumeControl(player, volumeCtrl, quit)
		}()
		go func() {
			defer wg.Done()
			statsUpdateLoop(player, *backend, tuiProg, quit)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var quitChan <-chan ui.QuitMsg
	if volumeCtrl != nil {
		quitChan = volumeCtrl.Quit
	}

	select {
	case <-quitChan:
		log.Printf("Received quit signal from TUI")
	case sig := <-sigChan:
		log.Printf("Received %v signal, shutting down", sig)
	case err := <-player.Done():
		if err != nil {
			log.Printf("Playback error: %v", err)
		}
	}

	close(quit)
	wg.Wait()
	if tuiProg != nil {
		tuiProg.Quit()
	}

	stats := player.Stats()
	if err := player.Close(); err != nil {
		log.Printf("Error closing player: %v", err)
	}
	log.Printf("Player stopped (written %d samples, %d underruns)", stats.Written, stats.Underruns)
}

// handleVolumeControl applies volume changes from the TUI
func handleVolumeControl(player *app.Player, volumeCtrl *ui.VolumeControl, quit <-chan struct{}) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			player.SetVolume(vol.Volume)
			player.Mute(vol.Muted)
		case <-quit:
			return
		}
	}
}

// statsUpdateLoop periodically sends ring statistics to the TUI
func statsUpdateLoop(player *app.Player, backend string, tuiProg *tea.Program, quit <-chan struct{}) {
	format := player.Format()
	tuiProg.Send(ui.StatusMsg{
		Source:     player.SourceName(),
		Backend:    backend,
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	})

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			stats := player.Stats()
			tuiProg.Send(ui.StatusMsg{
				Ring: &ui.RingState{
					Capacity: stats.Ring.Capacity,
					Readable: stats.Ring.Readable,
					Written:  stats.Ring.Written,
					Read:     stats.Ring.Read,
				},
				Underruns: stats.Underruns,
			})
		}
	}
}
