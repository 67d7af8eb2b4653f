package discovery

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/formwizard/internal/logging"
)

// TXT is the metadata published with an advertisement
type TXT map[string]string

// records returns the TXT entries as sorted "key=value" strings
func (t TXT) records() []string {
	out := make([]string, 0, len(t))
	for k, v := range t {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func parseTXT(entries []string) TXT {
	txt := make(TXT, len(entries))
	for _, e := range entries {
		k, v, _ := strings.Cut(e, "=")
		txt[k] = v
	}
	return txt
}

// Server is a formwizard server found on the network
type Server struct {
	// Instance is the advertised instance name (e.g., "office")
	Instance string

	// Hostname is the mDNS hostname (e.g., "laptop.local.")
	Hostname string

	// IP is the first address found, IPv4 preferred
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record data (version, forms, ...)
	Metadata TXT

	// DiscoveredAt is when the server answered
	DiscoveredAt time.Time
}

// String returns a human-readable description of the server
func (s *Server) String() string {
	return fmt.Sprintf("formwizard %s (%s) at %s:%d", s.Instance, s.Hostname, s.IP, s.Port)
}

// BaseURL returns the HTTP base URL of the server
func (s *Server) BaseURL() string {
	if strings.Contains(s.IP, ":") {
		return fmt.Sprintf("http://[%s]:%d", s.IP, s.Port)
	}
	return fmt.Sprintf("http://%s:%d", s.IP, s.Port)
}

// Get retrieves a metadata value by key, or "" if absent
func (s *Server) Get(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// Advertisement is a live mDNS registration
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers a formwizard service on every multicast interface
func Advertise(instance string, port int, txt TXT) (*Advertisement, error) {
	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt.records(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS service registered",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port))

	return &Advertisement{server: srv}, nil
}

// Shutdown withdraws the advertisement
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Debug("mDNS service withdrawn")
}
