// Package display models monitors and output topology for the mapping
// engine.
package display

// Monitor represents one physical display output.
type Monitor struct {
	// Connector is the output name, e.g. "eDP-1" or "DP-3".
	Connector string

	// EDID identity strings.
	Vendor  string
	Product string
	Serial  string

	// Physical panel size in millimeters. Zero when unknown.
	WidthMm  int
	HeightMm int

	// Current mode resolution in pixels.
	Width  int
	Height int

	// Position in the global coordinate space.
	X int
	Y int

	// Builtin marks the panel integrated into the chassis (laptop
	// screen, tablet display).
	Builtin bool
}

// LogicalMonitor is one region of the global coordinate space. Mirrored
// outputs share a logical monitor.
type LogicalMonitor struct {
	ID       string
	X        int
	Y        int
	Width    int
	Height   int
	Monitors []*Monitor
}

// Topology is an immutable snapshot of the current output layout. The
// mapper consumes a fresh snapshot on every monitors-changed event.
type Topology struct {
	LogicalMonitors []*LogicalMonitor
}

// NewTopology groups monitors into logical monitors. Monitors with
// identical geometry are considered mirrored and share one region; the
// first monitor's connector names the logical monitor.
func NewTopology(monitors []*Monitor) *Topology {
	t := &Topology{}

	for _, m := range monitors {
		var lm *LogicalMonitor
		for _, existing := range t.LogicalMonitors {
			if existing.X == m.X && existing.Y == m.Y &&
				existing.Width == m.Width && existing.Height == m.Height {
				lm = existing
				break
			}
		}
		if lm == nil {
			lm = &LogicalMonitor{
				ID:     m.Connector,
				X:      m.X,
				Y:      m.Y,
				Width:  m.Width,
				Height: m.Height,
			}
			t.LogicalMonitors = append(t.LogicalMonitors, lm)
		}
		lm.Monitors = append(lm.Monitors, m)
	}

	return t
}

// Monitors returns every monitor in the topology, in layout order.
func (t *Topology) Monitors() []*Monitor {
	var monitors []*Monitor
	for _, lm := range t.LogicalMonitors {
		monitors = append(monitors, lm.Monitors...)
	}
	return monitors
}

// LaptopPanel returns the integrated panel, or nil when the machine has
// none (desktop) or it is currently disabled.
func (t *Topology) LaptopPanel() *Monitor {
	for _, m := range t.Monitors() {
		if m.Builtin {
			return m
		}
	}
	return nil
}

// LogicalFor returns the logical monitor a monitor belongs to.
func (t *Topology) LogicalFor(monitor *Monitor) *LogicalMonitor {
	for _, lm := range t.LogicalMonitors {
		for _, m := range lm.Monitors {
			if m == monitor {
				return lm
			}
		}
	}
	return nil
}

// ScreenSize returns the bounding box of the global coordinate space.
func (t *Topology) ScreenSize() (width, height int) {
	for _, lm := range t.LogicalMonitors {
		if lm.X+lm.Width > width {
			width = lm.X + lm.Width
		}
		if lm.Y+lm.Height > height {
			height = lm.Y + lm.Height
		}
	}
	return width, height
}

// Matrix returns the affine coordinate transform that maps normalized
// device coordinates onto the monitor's logical region of the global
// space, row-major {xx, xy, x0, yx, yy, y0}. The identity matrix maps a
// device across the whole screen.
func (t *Topology) Matrix(monitor *Monitor) [6]float64 {
	identity := [6]float64{1, 0, 0, 0, 1, 0}

	lm := t.LogicalFor(monitor)
	if lm == nil {
		return identity
	}
	screenW, screenH := t.ScreenSize()
	if screenW == 0 || screenH == 0 {
		return identity
	}

	return [6]float64{
		float64(lm.Width) / float64(screenW), 0, float64(lm.X) / float64(screenW),
		0, float64(lm.Height) / float64(screenH), float64(lm.Y) / float64(screenH),
	}
}
