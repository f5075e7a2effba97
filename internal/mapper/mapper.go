// Package mapper decides which output each absolute input device maps
// to. It scores every device against every monitor, orders the claims,
// and binds devices to outputs under capability exclusivity: one
// touchscreen, one stylus, one eraser per output.
package mapper

import (
	"github.com/charmbracelet/log"

	"github.com/bnema/waymap/internal/config"
	"github.com/bnema/waymap/internal/display"
	"github.com/bnema/waymap/internal/input"
	"github.com/bnema/waymap/internal/logger"
)

// identity maps a device across the whole virtual screen.
var identity = [6]float64{1, 0, 0, 0, 1, 0}

// ConfigStore is the subset of the configuration store the mapper
// consumes: per-device output overrides and change subscriptions.
// *config.Store implements it.
type ConfigStore interface {
	OutputOverride(deviceKey string) []string
	Subscribe(deviceKey string, callback func()) *config.Subscription
}

// Mapper owns the device and output registries. All methods must be
// called from the compositor's control thread; operations run to
// completion synchronously and never overlap. Config subscriptions
// call back into the mapper, so the ConfigStore must deliver them on
// that same thread or the caller must serialize delivery itself.
type Mapper struct {
	topology *display.Topology
	store    ConfigStore     // nil disables config overrides
	probe    input.SizeProbe // nil disables size matching

	devices map[input.Device]*inputInfo
	order   []input.Device // registration order, for stable tie-break
	outputs map[string]*outputInfo

	onMapped      func(input.Device, [6]float64)
	onEnabled     func(input.Device, bool)
	onAspectRatio func(input.Device, float64)

	log *log.Logger
}

// inputInfo is the binding record of one registered device.
type inputInfo struct {
	device input.Device
	output *outputInfo // nil while unbound
	sub    *config.Subscription
}

// outputInfo tracks the devices bound to one logical monitor and the
// union of their capabilities. Recreated wholesale on every topology
// rebuild.
type outputInfo struct {
	logical      *display.LogicalMonitor
	devices      []*inputInfo
	attachedCaps input.Capability
}

// New creates a mapper with an empty topology. Both store and probe
// may be nil; the corresponding match ranks are then never satisfied.
func New(store ConfigStore, probe input.SizeProbe) *Mapper {
	return &Mapper{
		topology: display.NewTopology(nil),
		store:    store,
		probe:    probe,
		devices:  make(map[input.Device]*inputInfo),
		outputs:  make(map[string]*outputInfo),
		log:      logger.WithComponent("mapper"),
	}
}

// OnDeviceMapped sets the callback receiving the coordinate transform
// of a device whenever its binding changes.
func (m *Mapper) OnDeviceMapped(callback func(device input.Device, matrix [6]float64)) {
	m.onMapped = callback
}

// OnDeviceEnabled sets the callback receiving power-state driven
// enablement changes for the integrated touchscreen.
func (m *Mapper) OnDeviceEnabled(callback func(device input.Device, enabled bool)) {
	m.onEnabled = callback
}

// OnDeviceAspectRatio sets the callback receiving the aspect ratio of
// the region a device maps to.
func (m *Mapper) OnDeviceAspectRatio(callback func(device input.Device, ratio float64)) {
	m.onAspectRatio = callback
}

// RegisterDevice adds a device to the registry and computes its
// binding against the current outputs. Registering a known device is a
// no-op.
func (m *Mapper) RegisterDevice(device input.Device) {
	if _, ok := m.devices[device]; ok {
		return
	}
	if device.Type.Capability() == 0 {
		m.log.Debug("Ignoring device without mapping capability",
			"device", device.Name, "type", device.Type)
		return
	}

	info := &inputInfo{device: device}
	if m.store != nil {
		info.sub = m.store.Subscribe(device.SettingsKey(), func() {
			m.deviceConfigChanged(device)
		})
	}
	m.devices[device] = info
	m.order = append(m.order, device)

	m.log.Debug("Device registered", "device", device.Name, "type", device.Type)
	m.recalculateDevice(info)
}

// UnregisterDevice unbinds and drops a device. Unknown devices are a
// no-op.
func (m *Mapper) UnregisterDevice(device input.Device) {
	info, ok := m.devices[device]
	if !ok {
		return
	}

	if info.output != nil {
		m.removeInput(info.output, info)
	}
	info.sub.Close()
	delete(m.devices, device)
	for i, d := range m.order {
		if d == device {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}

	m.log.Debug("Device unregistered", "device", device.Name)
}

// RebuildOutputs replaces the output registry with a fresh snapshot of
// the topology and recomputes every binding.
func (m *Mapper) RebuildOutputs(topology *display.Topology) {
	m.topology = topology
	for _, output := range m.outputs {
		m.clearInputs(output)
	}
	m.outputs = make(map[string]*outputInfo)

	for _, lm := range topology.LogicalMonitors {
		m.outputs[lm.ID] = &outputInfo{logical: lm}
	}

	m.log.Debug("Outputs rebuilt", "logical_monitors", len(topology.LogicalMonitors))
	m.recalculateAll()
}

// HandlePowerSaveChanged emits an enablement event for the touchscreen
// of the integrated panel, if one is currently mapped there.
func (m *Mapper) HandlePowerSaveChanged(on bool) {
	panel := m.topology.LaptopPanel()
	if panel == nil {
		return
	}
	lm := m.topology.LogicalFor(panel)
	if lm == nil {
		return
	}
	device, ok := m.DeviceForOutput(lm.ID, input.DeviceTypeTouchscreen)
	if !ok {
		return
	}
	if m.onEnabled != nil {
		m.onEnabled(device, on)
	}
}

// DeviceForOutput returns the first device of the given type bound to
// a logical monitor.
func (m *Mapper) DeviceForOutput(logicalMonitorID string, deviceType input.DeviceType) (input.Device, bool) {
	output, ok := m.outputs[logicalMonitorID]
	if !ok {
		return input.Device{}, false
	}
	for _, info := range output.devices {
		if info.device.Type == deviceType {
			return info.device, true
		}
	}
	return input.Device{}, false
}

// OutputForDevice returns the logical monitor a device is bound to.
// Pads have no binding of their own; they resolve through the grouped
// pen of the same tablet.
func (m *Mapper) OutputForDevice(device input.Device) (*display.LogicalMonitor, bool) {
	if device.Type == input.DeviceTypePad {
		pen, ok := m.findGroupedPen(device)
		if !ok {
			return nil, false
		}
		device = pen
	}

	info, ok := m.devices[device]
	if !ok || info.output == nil {
		return nil, false
	}
	return info.output.logical, true
}

// SettingsKey returns the config store key of a registered device, for
// callers that want to read or write its persistent settings.
func (m *Mapper) SettingsKey(device input.Device) (string, bool) {
	if _, ok := m.devices[device]; !ok {
		return "", false
	}
	return device.SettingsKey(), true
}

// findGroupedPen locates the pen or tablet sibling sharing a pad's
// device group.
func (m *Mapper) findGroupedPen(pad input.Device) (input.Device, bool) {
	for _, device := range m.order {
		if device.Type != input.DeviceTypePen && device.Type != input.DeviceTypeTablet {
			continue
		}
		if pad.Grouped(device) {
			return device, true
		}
	}
	return input.Device{}, false
}

// deviceConfigChanged is the config subscription callback: drop the
// current binding and recompute with the new override.
func (m *Mapper) deviceConfigChanged(device input.Device) {
	info, ok := m.devices[device]
	if !ok {
		return
	}
	if info.output != nil {
		m.removeInput(info.output, info)
	}
	m.recalculateDevice(info)
}

// recalculateAll replans every registered device against the current
// outputs.
func (m *Mapper) recalculateAll() {
	var plan mappingPlan
	for _, device := range m.order {
		plan.add(m.guessCandidates(m.devices[device]))
	}
	plan.apply(m)
}

// recalculateDevice replans a single device, leaving other bindings
// untouched.
func (m *Mapper) recalculateDevice(info *inputInfo) {
	var plan mappingPlan
	plan.add(m.guessCandidates(info))
	plan.apply(m)
}

// setOutput records a binding transition and emits the mapped and
// aspect-ratio events. A transition to the already-bound output is a
// no-op.
func (m *Mapper) setOutput(info *inputInfo, output *outputInfo, monitor *display.Monitor) {
	if info.output == output {
		return
	}
	info.output = output

	matrix := identity
	var width, height int
	if output != nil && monitor != nil {
		matrix = m.topology.Matrix(monitor)
		width, height = monitor.Width, monitor.Height
	} else {
		width, height = m.topology.ScreenSize()
	}

	var ratio float64
	if height > 0 {
		ratio = float64(width) / float64(height)
	}

	if m.onMapped != nil {
		m.onMapped(info.device, matrix)
	}
	if m.onAspectRatio != nil {
		m.onAspectRatio(info.device, ratio)
	}
}

// addInput binds a device to an output, keeping the capability union
// in sync. A device bound elsewhere is unbound first.
func (m *Mapper) addInput(output *outputInfo, info *inputInfo, monitor *display.Monitor) {
	if info.output == output {
		return
	}
	if info.output != nil {
		m.removeInput(info.output, info)
	}

	output.devices = append(output.devices, info)
	output.attachedCaps |= info.device.Type.Capability()

	m.setOutput(info, output, monitor)
}

// removeInput unbinds a device and recomputes the output's capability
// union from the remaining members.
func (m *Mapper) removeInput(output *outputInfo, info *inputInfo) {
	for i, member := range output.devices {
		if member == info {
			output.devices = append(output.devices[:i], output.devices[i+1:]...)
			break
		}
	}
	output.attachedCaps = 0
	for _, member := range output.devices {
		output.attachedCaps |= member.device.Type.Capability()
	}

	m.setOutput(info, nil, nil)
}

// clearInputs unbinds every device from an output ahead of a topology
// rebuild.
func (m *Mapper) clearInputs(output *outputInfo) {
	for _, info := range output.devices {
		m.setOutput(info, nil, nil)
	}
	output.devices = nil
	output.attachedCaps = 0
}
