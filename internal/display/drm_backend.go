package display

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/waymap/internal/logger"
)

// drmBackend reads connector state and EDID blobs straight from
// /sys/class/drm. It knows nothing about the compositor's layout, so
// monitors are laid out left to right in connector order; identity and
// physical size are exact.
type drmBackend struct {
	sysfsPath string
}

func newDRMBackend() (Backend, error) {
	return newDRMBackendAt("/sys/class/drm")
}

func newDRMBackendAt(path string) (Backend, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("DRM sysfs not available: %w", err)
	}
	return &drmBackend{sysfsPath: path}, nil
}

func (d *drmBackend) GetMonitors() ([]*Monitor, error) {
	entries, err := os.ReadDir(d.sysfsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.sysfsPath, err)
	}

	var monitors []*Monitor
	x := 0

	for _, entry := range entries {
		// Connector dirs look like "card0-eDP-1".
		name := entry.Name()
		dash := strings.Index(name, "-")
		if !strings.HasPrefix(name, "card") || dash < 0 {
			continue
		}
		connector := name[dash+1:]

		status, err := os.ReadFile(filepath.Join(d.sysfsPath, name, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		m := &Monitor{
			Connector: connector,
			Builtin:   isBuiltinConnector(connector),
			X:         x,
		}

		if blob, err := os.ReadFile(filepath.Join(d.sysfsPath, name, "edid")); err == nil {
			if info, err := parseEDID(blob); err == nil {
				m.Vendor = info.vendor
				m.Product = info.product
				m.Serial = info.serial
				m.WidthMm = info.widthMm
				m.HeightMm = info.heightMm
			} else {
				logger.Debugf("Unparseable EDID on %s: %v", connector, err)
			}
		}

		if modes, err := os.ReadFile(filepath.Join(d.sysfsPath, name, "modes")); err == nil {
			if w, h, ok := parseMode(string(modes)); ok {
				m.Width = w
				m.Height = h
			}
		}

		x += m.Width
		monitors = append(monitors, m)
	}

	if len(monitors) == 0 {
		return nil, fmt.Errorf("no connected DRM connectors found")
	}
	return monitors, nil
}

func (d *drmBackend) Close() error { return nil }

// parseMode extracts the preferred mode from the sysfs modes list,
// whose first line is e.g. "1920x1080".
func parseMode(modes string) (width, height int, ok bool) {
	line, _, _ := strings.Cut(modes, "\n")
	wstr, hstr, found := strings.Cut(strings.TrimSpace(line), "x")
	if !found {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(wstr+" "+hstr, "%d %d", &width, &height); err != nil {
		return 0, 0, false
	}
	return width, height, true
}

// isBuiltinConnector reports whether a connector name denotes an
// integrated panel.
func isBuiltinConnector(connector string) bool {
	for _, prefix := range []string{"eDP", "LVDS", "DSI"} {
		if strings.HasPrefix(connector, prefix) {
			return true
		}
	}
	return false
}
