package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/waymap/internal/logger"
)

// procDevice is one block parsed out of /proc/bus/input/devices.
type procDevice struct {
	name     string
	vendor   string
	product  string
	phys     string
	sysfs    string
	handlers []string
}

// ListDevices enumerates the input devices the kernel currently
// exposes, classified and grouped. Devices that carry no mapping
// capability (plain mice, keyboards) are still returned; callers
// filter on Capability if they only care about mappable devices.
func ListDevices() ([]Device, error) {
	raw, err := os.ReadFile("/proc/bus/input/devices")
	if err != nil {
		return nil, fmt.Errorf("failed to read input device list: %w", err)
	}
	return parseProcDevices(string(raw)), nil
}

func parseProcDevices(data string) []Device {
	var devices []Device

	for _, block := range strings.Split(data, "\n\n") {
		pd := parseProcBlock(block)
		if pd.name == "" {
			continue
		}

		node := pd.eventNode()
		dev := Device{
			Name:      pd.name,
			VendorID:  pd.vendor,
			ProductID: pd.product,
			Node:      node,
			Type:      classifyDevice(pd.name, node),
			GroupID:   groupID(pd.phys),
			Builtin:   isBuiltinPhys(pd.phys),
		}
		logger.Debugf("Found input device %q type=%s node=%s group=%q",
			dev.Name, dev.Type, dev.Node, dev.GroupID)
		devices = append(devices, dev)
	}

	return devices
}

func parseProcBlock(block string) procDevice {
	var pd procDevice

	for _, line := range strings.Split(block, "\n") {
		switch {
		case strings.HasPrefix(line, "I: "):
			for _, field := range strings.Fields(line[3:]) {
				if v, ok := strings.CutPrefix(field, "Vendor="); ok {
					pd.vendor = v
				}
				if p, ok := strings.CutPrefix(field, "Product="); ok {
					pd.product = p
				}
			}
		case strings.HasPrefix(line, "N: Name="):
			pd.name = strings.Trim(line[len("N: Name="):], "\"")
		case strings.HasPrefix(line, "P: Phys="):
			pd.phys = line[len("P: Phys="):]
		case strings.HasPrefix(line, "S: Sysfs="):
			pd.sysfs = line[len("S: Sysfs="):]
		case strings.HasPrefix(line, "H: Handlers="):
			pd.handlers = strings.Fields(line[len("H: Handlers="):])
		}
	}

	return pd
}

func (pd procDevice) eventNode() string {
	for _, h := range pd.handlers {
		if strings.HasPrefix(h, "event") {
			return filepath.Join("/dev/input", h)
		}
	}
	return ""
}

// classifyDevice maps a kernel device name onto the closed DeviceType
// set. The kernel splits tablets into one device per tool, with the
// tool named in a suffix ("Pen", "Eraser", "Pad", "Finger", ...), so
// name keywords are reliable here.
func classifyDevice(name, node string) DeviceType {
	n := strings.ToLower(name)

	switch {
	case strings.Contains(n, "touchpad") || strings.Contains(n, "trackpad"):
		// Touchpads are relative pointers, not tablet pads.
		return DeviceTypePointer
	case strings.Contains(n, "eraser"):
		return DeviceTypeEraser
	case strings.Contains(n, "pad"):
		return DeviceTypePad
	case strings.Contains(n, "stylus") || strings.Contains(n, " pen"):
		return DeviceTypePen
	case strings.Contains(n, "cursor") || strings.Contains(n, "puck"):
		return DeviceTypeCursor
	case strings.Contains(n, "finger") || strings.Contains(n, "touch screen") ||
		strings.Contains(n, "touchscreen"):
		return DeviceTypeTouchscreen
	case strings.Contains(n, "keyboard") || strings.Contains(n, "kbd"):
		return DeviceTypeKeyboard
	case strings.Contains(n, "tablet"):
		return DeviceTypeTablet
	}

	// Ambiguous name: fall back to evdev capability bits.
	if node != "" {
		if t, ok := classifyByCapabilities(node); ok {
			return t
		}
	}

	return DeviceTypePointer
}

// groupID derives the tablet group from the physical topology path.
// The tools of one tablet share a phys prefix and differ only in the
// trailing input interface, e.g. "usb-0000:00:14.0-1/input0" and
// ".../input1".
func groupID(phys string) string {
	if phys == "" {
		return ""
	}
	if i := strings.LastIndex(phys, "/input"); i > 0 {
		return phys[:i]
	}
	return phys
}

// isBuiltinPhys guesses chassis integration from the physical bus.
// Builtin touchscreens sit on i2c or platform buses rather than
// external USB ports.
func isBuiltinPhys(phys string) bool {
	return strings.HasPrefix(phys, "i2c") ||
		strings.HasPrefix(phys, "platform") ||
		strings.HasPrefix(phys, "isa")
}
