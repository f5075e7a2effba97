// Package input provides input device identity, classification and
// enumeration for the mapping engine.
package input

// DeviceType is the closed set of input device kinds waymap knows about.
type DeviceType int

const (
	DeviceTypeTouchscreen DeviceType = iota
	DeviceTypeTablet
	DeviceTypePen
	DeviceTypeEraser
	DeviceTypePad
	DeviceTypeCursor
	DeviceTypePointer
	DeviceTypeKeyboard
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeTouchscreen:
		return "touchscreen"
	case DeviceTypeTablet:
		return "tablet"
	case DeviceTypePen:
		return "pen"
	case DeviceTypeEraser:
		return "eraser"
	case DeviceTypePad:
		return "pad"
	case DeviceTypeCursor:
		return "cursor"
	case DeviceTypePointer:
		return "pointer"
	case DeviceTypeKeyboard:
		return "keyboard"
	default:
		return "unknown"
	}
}

// Capability describes the kind of absolute pointing interaction a
// device provides. Outputs never carry two devices sharing a bit.
type Capability uint32

const (
	CapTouch  Capability = 1 << 0 // touchscreen or touch part of a tablet
	CapStylus Capability = 1 << 1 // tablet pen
	CapEraser Capability = 1 << 2 // tablet eraser
	CapPad    Capability = 1 << 3 // tablet pad
	CapCursor Capability = 1 << 4 // puck/mouse-like tablet tool
)

// Capability returns the mapping capability contributed by a device of
// this type. Relative pointers and keyboards have no spatial mapping.
func (t DeviceType) Capability() Capability {
	switch t {
	case DeviceTypeTouchscreen:
		return CapTouch
	case DeviceTypeTablet, DeviceTypePen:
		return CapStylus
	case DeviceTypeEraser:
		return CapEraser
	case DeviceTypePad:
		return CapPad
	case DeviceTypeCursor:
		return CapCursor
	case DeviceTypePointer, DeviceTypeKeyboard:
		return 0
	default:
		return 0
	}
}

// IsTabletTool reports whether the type belongs to a graphics tablet
// (as opposed to a touchscreen or plain pointer/keyboard).
func (t DeviceType) IsTabletTool() bool {
	switch t {
	case DeviceTypeTablet, DeviceTypePen, DeviceTypeEraser, DeviceTypePad, DeviceTypeCursor:
		return true
	default:
		return false
	}
}

// Device identifies one physical input device. It is a comparable value
// type; the mapper uses it directly as a registry key.
type Device struct {
	// Name is the kernel device name, e.g. "Wacom Cintiq 13HD Pen".
	Name string

	// VendorID and ProductID are the 4-digit hex USB/bus IDs.
	VendorID  string
	ProductID string

	// Node is the event device path, e.g. "/dev/input/event13".
	// May be empty for virtual devices.
	Node string

	Type DeviceType

	// GroupID ties together the sibling devices of one physical
	// tablet (pen, eraser, pad, ...). Empty when ungrouped.
	GroupID string

	// Builtin marks devices integrated into the system chassis,
	// e.g. a laptop touchscreen.
	Builtin bool

	// Detachable marks external peripherals such as opaque USB
	// tablets, whose surface size is unrelated to any panel. When
	// the hardware database gives no verdict this stays false and
	// the device is treated as integrated.
	Detachable bool
}

// SettingsKey returns the per-device key used by the config store,
// mirroring the vendor:product scheme used for persistent settings.
func (d Device) SettingsKey() string {
	return d.VendorID + ":" + d.ProductID
}

// Grouped reports whether two devices belong to the same physical
// tablet.
func (d Device) Grouped(other Device) bool {
	return d.GroupID != "" && d.GroupID == other.GroupID
}
