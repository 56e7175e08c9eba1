// ABOUTME: mDNS advertisement and browsing for ring monitors
// ABOUTME: Monitors announce _rtbridge._tcp with their stream path and format in TXT records
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD type monitors register under
const ServiceType = "_rtbridge._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	// Path is the websocket path announced in the TXT record
	Path string
	// SampleRate and Channels describe the monitored stream
	SampleRate int
	Channels   int
}

// Manager handles mDNS operations
type Manager struct {
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
	monitors chan *MonitorInfo
}

// MonitorInfo describes a discovered monitor
type MonitorInfo struct {
	Name       string
	Host       string
	Port       int
	Path       string
	SampleRate int
	Channels   int
}

// URL returns the websocket URL of the monitor stream
func (m *MonitorInfo) URL() string {
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(m.Host, strconv.Itoa(m.Port)), m.Path)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Path == "" {
		config.Path = "/stream"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		monitors: make(chan *MonitorInfo, 10),
	}
}

// txtRecords builds the TXT fields announced for a monitor
func (c Config) txtRecords() []string {
	txt := []string{"path=" + c.Path}
	if c.SampleRate > 0 {
		txt = append(txt, "rate="+strconv.Itoa(c.SampleRate))
	}
	if c.Channels > 0 {
		txt = append(txt, "channels="+strconv.Itoa(c.Channels))
	}
	return txt
}

// Advertise announces this monitor until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.config.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse starts searching for monitors in the background
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	seen := make(map[string]bool)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				info := entryToMonitor(entry)
				if info == nil || seen[info.URL()] {
					continue
				}
				seen[info.URL()] = true

				log.Printf("Discovered monitor: %s at %s", info.Name, info.URL())

				select {
				case m.monitors <- info:
				case <-m.ctx.Done():
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Timeout = 3 * time.Second
		params.Entries = entries
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query error: %v", err)
		}
		close(entries)
		<-done
	}
}

// entryToMonitor converts a service entry, returning nil when it has no IPv4 address
func entryToMonitor(entry *mdns.ServiceEntry) *MonitorInfo {
	if entry.AddrV4 == nil {
		return nil
	}
	info := &MonitorInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: "/stream",
	}
	parseTXT(info, entry.InfoFields)
	return info
}

func parseTXT(info *MonitorInfo, fields []string) {
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			if strings.HasPrefix(value, "/") {
				info.Path = value
			}
		case "rate":
			info.SampleRate, _ = strconv.Atoi(value)
		case "channels":
			info.Channels, _ = strconv.Atoi(value)
		}
	}
}

// Monitors returns the channel of discovered monitors
func (m *Manager) Monitors() <-chan *MonitorInfo {
	return m.monitors
}

// Stop ends advertisement and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// FindMonitor browses until the first monitor appears or ctx ends
func FindMonitor(ctx context.Context) (*MonitorInfo, error) {
	mgr := NewManager(Config{})
	defer mgr.Stop()
	mgr.Browse()

	select {
	case info := <-mgr.Monitors():
		return info, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("no monitor found: %w", ctx.Err())
	}
}

// getLocalIPs returns local IPv4 addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
