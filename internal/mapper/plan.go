package mapper

// mappingPlan orders pending devices so that the strongest claims are
// granted first, then greedily hands each device the best output whose
// capability slot is still free.
type mappingPlan struct {
	sets []candidateSet
}

// add inserts a candidate set keeping the list sorted by descending
// best score. Equal scores keep insertion order, so devices registered
// earlier win ties.
func (p *mappingPlan) add(set candidateSet) {
	pos := len(p.sets)
	for i, existing := range p.sets {
		if existing.best < set.best {
			pos = i
			break
		}
	}
	p.sets = append(p.sets, candidateSet{})
	copy(p.sets[pos+1:], p.sets[pos:])
	p.sets[pos] = set
}

// apply walks the ordered devices and binds each to its first
// candidate whose output does not already carry the device's
// capability. A device whose candidates are all saturated, or that has
// none, stays unbound; that is a valid outcome, not an error.
func (p *mappingPlan) apply(m *Mapper) {
	for _, set := range p.sets {
		caps := set.input.device.Type.Capability()

		m.log.Debug("Applying mapping",
			"device", set.input.device.Name, "caps", caps, "candidates", len(set.matches))

		for _, match := range set.matches {
			lm := m.topology.LogicalFor(match.monitor)
			if lm == nil {
				continue
			}
			output, ok := m.outputs[lm.ID]
			if !ok {
				continue
			}
			if output.attachedCaps&caps != 0 {
				continue
			}

			m.log.Debug("Matched input with output",
				"device", set.input.device.Name,
				"output", lm.ID, "score", match.score)
			m.addInput(output, set.input, match.monitor)
			break
		}
	}
}
