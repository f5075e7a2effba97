package mapper

import (
	"sort"
	"strings"

	"github.com/bnema/waymap/internal/display"
	"github.com/bnema/waymap/internal/input"
)

// Relative tolerance for matching an input surface against a panel of
// the same physical size.
const maxSizeMatchDiff = 0.05

// MatchRank identifies one matching heuristic. Ranks are bit positions
// in a Score, so any satisfied higher rank outweighs every combination
// of lower ones.
type MatchRank int

const (
	MatchEDIDVendor  MatchRank = iota // monitor vendor appears in device name
	MatchEDIDPartial                  // one product token appears in device name
	MatchEDIDFull                     // full product string appears in device name
	MatchSize                         // physical sizes agree within tolerance
	MatchBuiltin                      // builtin device on the integrated panel
	MatchConfig                       // pinned by config override
)

// Score is the OR of the satisfied match rank bits for one monitor.
type Score uint32

func (r MatchRank) bit() Score { return 1 << r }

// candidate pairs a monitor with its match score for one device.
type candidate struct {
	monitor *display.Monitor
	score   Score
}

// candidateSet is one device's ranked candidate list, strongest first.
type candidateSet struct {
	input   *inputInfo
	matches []candidate
	best    Score
}

// guessCandidates evaluates a device against every monitor in the
// topology. Monitors that satisfy no heuristic are dropped; when
// nothing matches at all, the integrated panel (if any) is the sole
// zero-score fallback candidate.
func (m *Mapper) guessCandidates(info *inputInfo) candidateSet {
	set := candidateSet{input: info}
	device := info.device

	override := m.validOverride(device)
	integrated := deviceIntegrated(device)

	for _, monitor := range m.topology.Monitors() {
		var score Score

		if rank, ok := matchEDID(device.Name, monitor); ok {
			score |= rank.bit()
		}
		if integrated && m.matchSize(device, monitor) {
			score |= MatchSize.bit()
		}
		if device.Builtin && monitor == m.topology.LaptopPanel() {
			score |= MatchBuiltin.bit()
		}
		if matchOverride(override, monitor) {
			score |= MatchConfig.bit()
		}

		if score > 0 {
			set.matches = append(set.matches, candidate{monitor: monitor, score: score})
		}
	}

	if len(set.matches) == 0 {
		if panel := m.topology.LaptopPanel(); panel != nil {
			set.matches = append(set.matches, candidate{monitor: panel})
		}
		return set
	}

	sort.SliceStable(set.matches, func(i, j int) bool {
		return set.matches[i].score > set.matches[j].score
	})
	set.best = set.matches[0].score

	return set
}

// matchEDID checks the device name against a monitor's EDID strings.
// The three EDID ranks are mutually exclusive: only the strongest
// sub-match counts.
func matchEDID(deviceName string, monitor *display.Monitor) (MatchRank, bool) {
	if monitor.Vendor == "" || !containsFold(deviceName, monitor.Vendor) {
		return 0, false
	}

	rank := MatchEDIDVendor

	if monitor.Product != "" && containsFold(deviceName, monitor.Product) {
		rank = MatchEDIDFull
	} else {
		for _, token := range strings.Fields(monitor.Product) {
			if containsFold(deviceName, token) {
				rank = MatchEDIDPartial
				break
			}
		}
	}

	return rank, true
}

// matchSize compares the device's physical surface against the
// monitor's panel dimensions, within 5% on both axes.
func (m *Mapper) matchSize(device input.Device, monitor *display.Monitor) bool {
	if m.probe == nil {
		return false
	}
	inW, inH, ok := m.probe.PhysicalSize(device.Node)
	if !ok {
		return false
	}

	wDiff := abs(1 - float64(monitor.WidthMm)/inW)
	hDiff := abs(1 - float64(monitor.HeightMm)/inH)
	return wDiff < maxSizeMatchDiff && hDiff < maxSizeMatchDiff
}

// validOverride fetches and validates the device's output override.
// A malformed override (element count != 3) is logged and ignored for
// this device; the other heuristics still apply. The all-empty triplet
// means "unset".
func (m *Mapper) validOverride(device input.Device) []string {
	if m.store == nil {
		return nil
	}
	override := m.store.OutputOverride(device.SettingsKey())
	if len(override) == 0 {
		return nil
	}
	if len(override) != 3 {
		m.log.Warn("Output configuration is incorrect, must have 3 values",
			"device", device.Name, "values", len(override))
		return nil
	}
	if override[0] == "" && override[1] == "" && override[2] == "" {
		return nil
	}
	return override
}

func matchOverride(override []string, monitor *display.Monitor) bool {
	return len(override) == 3 &&
		monitor.Vendor == override[0] &&
		monitor.Product == override[1] &&
		monitor.Serial == override[2]
}

// deviceIntegrated reports whether the device surface is part of a
// display rather than a detachable opaque peripheral. Size matching
// only makes sense for integrated surfaces; an opaque external tablet
// legitimately differs from every panel.
func deviceIntegrated(device input.Device) bool {
	if device.Type == input.DeviceTypeTouchscreen {
		return true
	}
	return !device.Detachable
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
