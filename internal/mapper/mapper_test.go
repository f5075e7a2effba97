package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/waymap/internal/config"
	"github.com/bnema/waymap/internal/display"
	"github.com/bnema/waymap/internal/input"
)

// fakeStore implements ConfigStore in-memory and lets tests fire the
// change callbacks by hand.
type fakeStore struct {
	overrides map[string][]string
	callbacks map[string]func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		overrides: make(map[string][]string),
		callbacks: make(map[string]func()),
	}
}

func (s *fakeStore) OutputOverride(deviceKey string) []string {
	return s.overrides[deviceKey]
}

func (s *fakeStore) Subscribe(deviceKey string, callback func()) *config.Subscription {
	s.callbacks[deviceKey] = callback
	return nil
}

func (s *fakeStore) fireChange(deviceKey string) {
	if cb := s.callbacks[deviceKey]; cb != nil {
		cb()
	}
}

// fakeProbe maps device nodes to physical sizes in mm.
type fakeProbe map[string][2]float64

func (p fakeProbe) PhysicalSize(node string) (float64, float64, bool) {
	size, ok := p[node]
	return size[0], size[1], ok
}

func builtinPanel() *display.Monitor {
	return &display.Monitor{
		Connector: "eDP-1",
		Vendor:    "BOE", Product: "0x0936",
		WidthMm: 294, HeightMm: 165,
		Width: 1920, Height: 1080,
		Builtin: true,
	}
}

func externalMonitor(connector string, x int) *display.Monitor {
	return &display.Monitor{
		Connector: connector,
		Vendor:    "DEL", Product: "DELL U2720Q", Serial: "ABC123",
		WidthMm: 597, HeightMm: 336,
		Width: 3840, Height: 2160,
		X: x,
	}
}

func touchscreen(name string) input.Device {
	return input.Device{
		Name: name, VendorID: "04f3", ProductID: "2494",
		Node: "/dev/input/event5", Type: input.DeviceTypeTouchscreen,
		Builtin: true,
	}
}

// checkInvariants asserts the registry invariants that must hold after
// every operation: binding/output symmetry, capability unions, single
// binding per device, capability exclusivity per output.
func checkInvariants(t *testing.T, m *Mapper) {
	t.Helper()

	for _, info := range m.devices {
		if info.output == nil {
			continue
		}
		found := false
		for _, member := range info.output.devices {
			if member == info {
				found = true
			}
		}
		assert.True(t, found, "bound device %q missing from its output", info.device.Name)
	}

	for id, output := range m.outputs {
		var union input.Capability
		var seen input.Capability
		for _, member := range output.devices {
			caps := member.device.Type.Capability()
			assert.Zero(t, seen&caps,
				"output %s carries two devices with capability %v", id, caps)
			seen |= caps
			union |= caps
			assert.Same(t, output, member.output,
				"device %q listed on output %s but bound elsewhere", member.device.Name, id)
		}
		assert.Equal(t, union, output.attachedCaps, "capability union out of sync on %s", id)
	}
}

func TestEDIDNameMatch(t *testing.T) {
	// A touchscreen whose name carries the monitor's EDID identity
	// must bind to that monitor, not the integrated panel.
	wacom := &display.Monitor{
		Connector: "DP-1",
		Vendor:    "WACOM", Product: "Cintiq 13HD", Serial: "42",
		WidthMm: 299, HeightMm: 171,
		Width: 1920, Height: 1080, X: 1920,
	}
	topology := display.NewTopology([]*display.Monitor{builtinPanel(), wacom})

	m := New(nil, nil)
	m.RebuildOutputs(topology)

	dev := input.Device{
		Name: "Wacom Cintiq 13HD", Type: input.DeviceTypeTouchscreen,
		VendorID: "056a", ProductID: "0304",
	}
	m.RegisterDevice(dev)
	checkInvariants(t, m)

	lm, ok := m.OutputForDevice(dev)
	require.True(t, ok)
	assert.Equal(t, "DP-1", lm.ID)
}

func TestPhysicalSizeMatch(t *testing.T) {
	// 300x190mm pen surface: monitor A is within the 5% tolerance on
	// both axes, monitor B is far off.
	a := &display.Monitor{
		Connector: "DP-1", Vendor: "AUS", Product: "PA148",
		WidthMm: 310, HeightMm: 195, Width: 1920, Height: 1080,
	}
	b := &display.Monitor{
		Connector: "DP-2", Vendor: "DEL", Product: "U2720Q",
		WidthMm: 600, HeightMm: 400, Width: 3840, Height: 2160, X: 1920,
	}
	probe := fakeProbe{"/dev/input/event7": {300, 190}}

	m := New(nil, probe)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{a, b}))

	pen := input.Device{
		Name: "Tablet Pen", Type: input.DeviceTypePen,
		Node: "/dev/input/event7",
	}
	m.RegisterDevice(pen)
	checkInvariants(t, m)

	lm, ok := m.OutputForDevice(pen)
	require.True(t, ok)
	assert.Equal(t, "DP-1", lm.ID)
}

func TestPadResolvesThroughGroupedPen(t *testing.T) {
	wacom := &display.Monitor{
		Connector: "DP-1", Vendor: "WACOM", Product: "Intuos Pro M",
		Width: 1920, Height: 1080,
	}
	m := New(nil, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{wacom}))

	pen := input.Device{
		Name: "Wacom Intuos Pro M Pen", Type: input.DeviceTypePen,
		GroupID: "usb-0000:00:14.0-2",
	}
	pad := input.Device{
		Name: "Wacom Intuos Pro M Pad", Type: input.DeviceTypePad,
		GroupID: "usb-0000:00:14.0-2",
	}
	m.RegisterDevice(pen)
	m.RegisterDevice(pad)
	checkInvariants(t, m)

	penOut, ok := m.OutputForDevice(pen)
	require.True(t, ok)

	padOut, ok := m.OutputForDevice(pad)
	require.True(t, ok, "pad must resolve through its grouped pen")
	assert.Equal(t, penOut, padOut)

	// An ungrouped pad has no binding to report.
	lonePad := input.Device{Name: "Stray Pad", Type: input.DeviceTypePad, GroupID: "usb-9"}
	m.RegisterDevice(lonePad)
	_, ok = m.OutputForDevice(lonePad)
	assert.False(t, ok)
}

func TestConfigOverrideDominates(t *testing.T) {
	// EDID points the device at DP-1, the override pins it to DP-2.
	edidMatch := &display.Monitor{
		Connector: "DP-1", Vendor: "WACOM", Product: "Cintiq 13HD",
		Width: 1920, Height: 1080,
	}
	pinned := externalMonitor("DP-2", 1920)

	store := newFakeStore()
	dev := input.Device{
		Name: "Wacom Cintiq 13HD", Type: input.DeviceTypeTouchscreen,
		VendorID: "056a", ProductID: "0304",
	}
	store.overrides[dev.SettingsKey()] = []string{"DEL", "DELL U2720Q", "ABC123"}

	m := New(store, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{edidMatch, pinned}))
	m.RegisterDevice(dev)
	checkInvariants(t, m)

	lm, ok := m.OutputForDevice(dev)
	require.True(t, ok)
	assert.Equal(t, "DP-2", lm.ID)
}

func TestStaleOverrideIgnored(t *testing.T) {
	// The override names a monitor that is not connected; the device
	// falls through to the remaining heuristics.
	store := newFakeStore()
	dev := touchscreen("ELAN Touchscreen")
	store.overrides[dev.SettingsKey()] = []string{"GONE", "Old Monitor", "123"}

	m := New(store, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{builtinPanel()}))
	m.RegisterDevice(dev)
	checkInvariants(t, m)

	// The builtin heuristic still applies and wins the panel.
	lm, ok := m.OutputForDevice(dev)
	require.True(t, ok)
	assert.Equal(t, "eDP-1", lm.ID)
}

func TestMalformedOverrideSkipped(t *testing.T) {
	store := newFakeStore()
	dev := input.Device{
		Name: "Wacom Cintiq 13HD", Type: input.DeviceTypeTouchscreen,
		VendorID: "056a", ProductID: "0304",
	}
	// Two elements instead of three: logged and ignored, the EDID
	// heuristics still run.
	store.overrides[dev.SettingsKey()] = []string{"WACOM", "Cintiq 13HD"}

	wacom := &display.Monitor{
		Connector: "DP-1", Vendor: "WACOM", Product: "Cintiq 13HD",
		Width: 1920, Height: 1080,
	}
	m := New(store, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{wacom}))
	m.RegisterDevice(dev)
	checkInvariants(t, m)

	lm, ok := m.OutputForDevice(dev)
	require.True(t, ok)
	assert.Equal(t, "DP-1", lm.ID)
}

func TestFallback(t *testing.T) {
	t.Run("unmatched device binds to integrated panel", func(t *testing.T) {
		m := New(nil, nil)
		m.RebuildOutputs(display.NewTopology([]*display.Monitor{
			builtinPanel(), externalMonitor("DP-1", 1920),
		}))

		dev := input.Device{Name: "Mystery Touch", Type: input.DeviceTypeTouchscreen}
		m.RegisterDevice(dev)
		checkInvariants(t, m)

		lm, ok := m.OutputForDevice(dev)
		if !ok {
			t.Fatal("expected fallback binding")
		}
		if lm.ID != "eDP-1" {
			t.Errorf("expected eDP-1, got %s", lm.ID)
		}
	})

	t.Run("no panel means unbound, not an error", func(t *testing.T) {
		m := New(nil, nil)
		m.RebuildOutputs(display.NewTopology([]*display.Monitor{
			externalMonitor("DP-1", 0),
		}))

		dev := input.Device{Name: "Mystery Touch", Type: input.DeviceTypeTouchscreen}
		m.RegisterDevice(dev)
		checkInvariants(t, m)

		if _, ok := m.OutputForDevice(dev); ok {
			t.Error("expected device to stay unbound")
		}
	})
}

func TestCapabilityExclusivity(t *testing.T) {
	m := New(nil, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{builtinPanel()}))

	first := touchscreen("ELAN Touchscreen")
	second := input.Device{
		Name: "Second Touchscreen", Type: input.DeviceTypeTouchscreen,
		VendorID: "04f3", ProductID: "9999",
	}
	m.RegisterDevice(first)
	m.RegisterDevice(second)
	checkInvariants(t, m)

	_, firstBound := m.OutputForDevice(first)
	_, secondBound := m.OutputForDevice(second)
	assert.True(t, firstBound)
	assert.False(t, secondBound, "one output never carries two touch devices")

	// A pen contributes a different capability and still fits.
	pen := input.Device{Name: "Builtin Pen", Type: input.DeviceTypePen, Builtin: true}
	m.RegisterDevice(pen)
	checkInvariants(t, m)
	_, penBound := m.OutputForDevice(pen)
	assert.True(t, penBound)
}

func TestRegisterIdempotent(t *testing.T) {
	m := New(nil, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{builtinPanel()}))

	dev := touchscreen("ELAN Touchscreen")
	m.RegisterDevice(dev)
	m.RegisterDevice(dev)
	checkInvariants(t, m)

	assert.Len(t, m.devices, 1)
	assert.Len(t, m.order, 1)

	output := m.outputs["eDP-1"]
	assert.Len(t, output.devices, 1)
}

func TestUnregister(t *testing.T) {
	m := New(nil, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{builtinPanel()}))

	dev := touchscreen("ELAN Touchscreen")
	m.RegisterDevice(dev)
	m.UnregisterDevice(dev)
	checkInvariants(t, m)

	assert.Empty(t, m.devices)
	assert.Zero(t, m.outputs["eDP-1"].attachedCaps,
		"unregistering must release the capability slot")

	// Unknown device: defined no-op.
	m.UnregisterDevice(input.Device{Name: "never seen"})
	checkInvariants(t, m)
}

func TestRebuildDeterminism(t *testing.T) {
	monitors := func() []*display.Monitor {
		return []*display.Monitor{builtinPanel(), externalMonitor("DP-1", 1920)}
	}

	m := New(nil, nil)
	m.RebuildOutputs(display.NewTopology(monitors()))

	devs := []input.Device{
		touchscreen("ELAN Touchscreen"),
		{Name: "Dell U2720Q Touch Panel", Type: input.DeviceTypeTouchscreen, VendorID: "1111", ProductID: "2222"},
		{Name: "Tablet Pen", Type: input.DeviceTypePen, VendorID: "3333", ProductID: "4444"},
	}
	for _, d := range devs {
		m.RegisterDevice(d)
	}

	snapshot := func() map[string]string {
		out := make(map[string]string)
		for _, d := range devs {
			if lm, ok := m.OutputForDevice(d); ok {
				out[d.Name] = lm.ID
			}
		}
		return out
	}

	first := snapshot()
	for i := 0; i < 3; i++ {
		m.RebuildOutputs(display.NewTopology(monitors()))
		checkInvariants(t, m)
		assert.Equal(t, first, snapshot(), "rebuild %d changed bindings", i)
	}
}

func TestStrongerDeviceClaimsFirst(t *testing.T) {
	// The weak device registers first and takes the panel as its
	// fallback; after a full rebuild the strong EDID match must win
	// the contested output and the weak device ends up unbound.
	panel := builtinPanel()
	weak := input.Device{Name: "Mystery Touch", Type: input.DeviceTypeTouchscreen, ProductID: "0001"}
	strong := input.Device{Name: "BOE 0x0936 Touch", Type: input.DeviceTypeTouchscreen, ProductID: "0002"}

	m := New(nil, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{panel}))
	m.RegisterDevice(weak)
	m.RegisterDevice(strong)

	m.RebuildOutputs(display.NewTopology([]*display.Monitor{builtinPanel()}))
	checkInvariants(t, m)

	_, weakBound := m.OutputForDevice(weak)
	strongOut, strongBound := m.OutputForDevice(strong)
	require.True(t, strongBound)
	assert.Equal(t, "eDP-1", strongOut.ID)
	assert.False(t, weakBound)
}

func TestConfigChangeTriggersRecompute(t *testing.T) {
	a := &display.Monitor{
		Connector: "DP-1", Vendor: "AAA", Product: "Alpha", Serial: "1",
		Width: 1920, Height: 1080,
	}
	b := &display.Monitor{
		Connector: "DP-2", Vendor: "BBB", Product: "Beta", Serial: "2",
		Width: 1920, Height: 1080, X: 1920,
	}
	store := newFakeStore()
	dev := input.Device{Name: "Pen Display", Type: input.DeviceTypePen, VendorID: "056a", ProductID: "0001"}
	store.overrides[dev.SettingsKey()] = []string{"AAA", "Alpha", "1"}

	m := New(store, nil)
	m.RebuildOutputs(display.NewTopology([]*display.Monitor{a, b}))
	m.RegisterDevice(dev)

	lm, ok := m.OutputForDevice(dev)
	require.True(t, ok)
	require.Equal(t, "DP-1", lm.ID)

	store.overrides[dev.SettingsKey()] = []string{"BBB", "Beta", "2"}
	store.fireChange(dev.SettingsKey())
	checkInvariants(t, m)

	lm, ok = m.OutputForDevice(dev)
	require.True(t, ok)
	assert.Equal(t, "DP-2", lm.ID)
}
