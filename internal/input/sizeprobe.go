package input

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bnema/waymap/internal/logger"
)

// SizeProbe looks up the physical dimensions of an input surface by
// device node. Implementations return ok=false when no size is known;
// that merely disables size-based matching, it is not an error.
type SizeProbe interface {
	PhysicalSize(node string) (widthMm, heightMm float64, ok bool)
}

// UdevSizeProbe reads ID_INPUT_WIDTH_MM/ID_INPUT_HEIGHT_MM from the
// udev property database via udevadm, the same properties the desktop
// stack uses to size-match touchscreens.
type UdevSizeProbe struct{}

// NewUdevSizeProbe fails when udevadm is not installed; callers then
// run without a probe.
func NewUdevSizeProbe() (*UdevSizeProbe, error) {
	if _, err := exec.LookPath("udevadm"); err != nil {
		return nil, fmt.Errorf("udevadm not found: %w", err)
	}
	return &UdevSizeProbe{}, nil
}

func (p *UdevSizeProbe) PhysicalSize(node string) (float64, float64, bool) {
	if node == "" {
		return 0, 0, false
	}

	out, err := exec.Command("udevadm", "info", "-q", "property", "--name", node).Output()
	if err != nil {
		logger.Debugf("udevadm query for %s failed: %v", node, err)
		return 0, 0, false
	}

	props := parseUdevProperties(string(out))
	w, werr := strconv.ParseFloat(props["ID_INPUT_WIDTH_MM"], 64)
	h, herr := strconv.ParseFloat(props["ID_INPUT_HEIGHT_MM"], 64)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func parseUdevProperties(out string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if key, val, ok := strings.Cut(line, "="); ok {
			props[strings.TrimSpace(key)] = strings.TrimSpace(val)
		}
	}
	return props
}
