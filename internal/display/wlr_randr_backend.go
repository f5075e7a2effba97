package display

import (
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/bnema/waymap/internal/logger"
)

// wlrRandrBackend asks the compositor for outputs via wlr-randr. It is
// the preferred source because it knows the logical layout; EDID-level
// identity comes along in the make/model/serial fields.
type wlrRandrBackend struct{}

func newWlrRandrBackend() (Backend, error) {
	if _, err := exec.LookPath("wlr-randr"); err != nil {
		return nil, fmt.Errorf("wlr-randr not found: %w", err)
	}
	return &wlrRandrBackend{}, nil
}

type wlrRandrOutput struct {
	Name         string `json:"name"`
	Enabled      bool   `json:"enabled"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Serial       string `json:"serial"`
	PhysicalSize struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"physical_size"`
	Position struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"position"`
	Modes []struct {
		Width   int  `json:"width"`
		Height  int  `json:"height"`
		Current bool `json:"current"`
	} `json:"modes"`
}

func (w *wlrRandrBackend) GetMonitors() ([]*Monitor, error) {
	out, err := exec.Command("wlr-randr", "--json").Output()
	if err != nil {
		return nil, fmt.Errorf("wlr-randr failed: %w", err)
	}

	var outputs []wlrRandrOutput
	if err := json.Unmarshal(out, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse wlr-randr output: %w", err)
	}

	var monitors []*Monitor
	for _, o := range outputs {
		if !o.Enabled {
			logger.Debugf("Skipping disabled output %s", o.Name)
			continue
		}

		m := &Monitor{
			Connector: o.Name,
			Vendor:    o.Make,
			Product:   o.Model,
			Serial:    o.Serial,
			WidthMm:   o.PhysicalSize.Width,
			HeightMm:  o.PhysicalSize.Height,
			X:         o.Position.X,
			Y:         o.Position.Y,
			Builtin:   isBuiltinConnector(o.Name),
		}
		for _, mode := range o.Modes {
			if mode.Current {
				m.Width = mode.Width
				m.Height = mode.Height
				break
			}
		}
		monitors = append(monitors, m)
	}

	if len(monitors) == 0 {
		return nil, fmt.Errorf("wlr-randr reported no enabled outputs")
	}
	return monitors, nil
}

func (w *wlrRandrBackend) Close() error { return nil }
