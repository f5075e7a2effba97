package display

import (
	"fmt"

	"github.com/bnema/waymap/internal/logger"
)

// Backend enumerates the currently connected monitors.
type Backend interface {
	GetMonitors() ([]*Monitor, error)
	Close() error
}

// Detect returns the first working backend, trying the richest source
// first.
func Detect() (Backend, error) {
	backends := []struct {
		name   string
		create func() (Backend, error)
	}{
		{"wlr-randr", newWlrRandrBackend}, // compositor's view, with layout
		{"drm-sysfs", newDRMBackend},      // kernel's view, EDID identity
	}

	for _, b := range backends {
		backend, err := b.create()
		if err != nil {
			logger.Debugf("Backend %s unavailable: %v", b.name, err)
			continue
		}
		logger.Debugf("Using display backend: %s", b.name)
		return backend, nil
	}

	return nil, fmt.Errorf("no display backend available")
}

// CurrentTopology enumerates monitors through the best available
// backend and snapshots them into a topology.
func CurrentTopology() (*Topology, error) {
	backend, err := Detect()
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	monitors, err := backend.GetMonitors()
	if err != nil {
		return nil, err
	}
	return NewTopology(monitors), nil
}
