// ABOUTME: Entry point for the rtbridge capture monitor
// ABOUTME: Captures an input into a ring and streams it to WebSocket listeners
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/rtbridge/internal/app"
	"github.com/Resonate-Protocol/rtbridge/internal/monitor"
	"github.com/Resonate-Protocol/rtbridge/internal/ui"
	"github.com/Resonate-Protocol/rtbridge/internal/version"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	port       = flag.Int("port", 8927, "WebSocket server port")
	name       = flag.String("name", "", "Monitor friendly name (default: hostname-rtbridge)")
	in         = flag.String("input", "malgo", "Input: malgo, jack, tone, or a file/URL played in real time")
	loop       = flag.Bool("loop", false, "Loop file inputs")
	rate       = flag.Int("rate", 48000, "Capture sample rate for device inputs")
	channels   = flag.Int("channels", 2, "Capture channel count for device inputs")
	bufferMs   = flag.Int("buffer-ms", 500, "Ring size in milliseconds")
	lockMemory = flag.Bool("lock", false, "Lock ring memory into RAM")
	logFile    = flag.String("log-file", "rtcapture.log", "Log file path")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI     = flag.Bool("tui", false, "Show ring status TUI")
)

func main() {
	flag.Parse()

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if *useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	monitorName := *name
	if monitorName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		monitorName = fmt.Sprintf("%s-rtbridge", hostname)
	}

	log.Printf("Starting %s capture: %s on port %d", version.String(), monitorName, *port)
	if *debug {
		log.Printf("Debug logging enabled")
	}

	capture := app.NewCapture(app.CaptureConfig{
		Input:      *in,
		Loop:       *loop,
		SampleRate: *rate,
		Channels:   *channels,
		BufferMs:   *bufferMs,
		LockMemory: *lockMemory,
		Monitor: monitor.Config{
			Port:       *port,
			Name:       monitorName,
			EnableMDNS: !*noMDNS,
			Debug:      *debug,
		},
	})
	if err := capture.Open(); err != nil {
		capture.Close()
		log.Fatalf("Capture failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	quit := make(chan struct{})
	var wg sync.WaitGroup

	var tuiProg *tea.Program
	if *useTUI {
		tuiProg = ui.Run(monitorName, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			statsUpdateLoop(capture, tuiProg, quit)
		}()
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			capture.Stop()
		}()
	}

	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received %v signal, shutting down gracefully...", sig)
			capture.Stop()
		case <-quit:
		}
	}()

	runErr := capture.Run()

	close(quit)
	wg.Wait()
	if tuiProg != nil {
		tuiProg.Quit()
	}
	if err := capture.Close(); err != nil {
		log.Printf("Error closing input: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Monitor error: %v", runErr)
	}
}

// statsUpdateLoop sends ring and listener status to the TUI
func statsUpdateLoop(capture *app.Capture, tuiProg *tea.Program, quit <-chan struct{}) {
	format := capture.Format()
	tuiProg.Send(ui.StatusMsg{
		Source:     capture.Name(),
		Backend:    fmt.Sprintf("ws://:%d", *port),
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Clients:    []string{},
	})

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			server := capture.Server()
			stats := server.Stats()

			clients := []string{}
			for _, c := range server.Clients() {
				clients = append(clients, fmt.Sprintf("%s (%s, %d queued)", c.Name, c.Codec, c.Queued))
			}

			tuiProg.Send(ui.StatusMsg{
				Ring: &ui.RingState{
					Capacity: stats.Capacity,
					Readable: stats.Readable,
					Written:  stats.Written,
					Read:     stats.Read,
				},
				Overruns: stats.Overruns,
				Clients:  clients,
			})
		}
	}
}
