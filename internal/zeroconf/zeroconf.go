// Package zeroconf advertises the bench API as an mDNS/DNS-SD service so a
// bench host can find the bridge without knowing its address.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type of the bench API.
const ServiceType = "_phasebridge._tcp"

// Service manages mDNS service registration.
type Service struct {
	name string // instance name, e.g. "phasebridge"
	port int
	txt  []string
}

// New creates a Service that will advertise port under name. txt entries are
// "key=value" TXT records; "api=/api" is always included.
func New(name string, port int, txt ...string) *Service {
	records := append([]string{"api=/api"}, txt...)
	return &Service{name: name, port: port, txt: records}
}

// TXT returns the TXT records that Start registers.
func (s *Service) TXT() []string {
	out := make([]string, len(s.txt))
	copy(out, s.txt)
	return out
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	if s.port <= 0 || s.port > 0xFFFF {
		return fmt.Errorf("zeroconf: invalid port %d", s.port)
	}
	server, err := zeroconf.Register(
		s.name,      // instance name
		ServiceType, // service type
		"local.",    // domain
		s.port,      // port
		s.txt,       // TXT records
		nil,         // ifaces, nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"type", ServiceType,
		"port", s.port,
		"txt", s.txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
