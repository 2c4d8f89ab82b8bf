package transport

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrNoConnection is returned when a publish is attempted while no
// fleet member holds a broker connection.
var ErrNoConnection = errors.New("transport: no connected bank client")

// Fleet holds every bank identity's client and connects and tears them
// down together. Construction is separated from connection so the
// admin gateway can cycle the fleet without rebuilding it.
type Fleet struct {
	mu      sync.Mutex
	clients []*BankClient
	logger  *slog.Logger
}

func NewFleet(logger *slog.Logger) *Fleet {
	return &Fleet{logger: logger}
}

// Add registers a client with the fleet. Clients are added before
// ConnectAll; the fleet does not connect them on registration.
func (f *Fleet) Add(c *BankClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = append(f.clients, c)
}

// ConnectAll connects every client that is not already connected.
// Failures are logged per client; the rest of the fleet still comes up.
func (f *Fleet) ConnectAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.clients {
		if c.IsConnected() {
			continue
		}
		if err := c.Connect(); err != nil {
			f.logger.Error("bank client failed to connect", "bic", c.BIC(), "error", err)
		}
	}
}

func (f *Fleet) DisconnectAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.clients {
		if c.IsConnected() {
			c.Disconnect()
		}
	}
}

// Connected reports whether the client for the given BIC is up.
func (f *Fleet) Connected(bic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.clients {
		if c.BIC() == bic {
			return c.IsConnected()
		}
	}
	return false
}

// Publish sends a frame through the first connected fleet member.
// Outbound topics carry the owning bank's BIC, so any live connection
// to the broker can deliver them.
func (f *Fleet) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.clients {
		if c.IsConnected() {
			return c.Publish(topic, payload)
		}
	}
	return ErrNoConnection
}

// Statuses reports the connection state of every fleet member keyed
// by BIC.
func (f *Fleet) Statuses() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	statuses := make(map[string]bool, len(f.clients))
	for _, c := range f.clients {
		statuses[c.BIC()] = c.IsConnected()
	}
	return statuses
}

// Client returns the fleet member for a BIC, if any.
func (f *Fleet) Client(bic string) (*BankClient, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.clients {
		if c.BIC() == bic {
			return c, true
		}
	}
	return nil, false
}
