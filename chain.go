package rack

// Chain is the upstream graph of a block driver in step order: every
// module comes after modules wired into its inputs. Engine doesn't step
// modules of the chain, the driver steps them with Step.
//
// Chain is not safe for concurrent use. It's meant to be rebuilt and
// stepped inside StepStream, where graph can't change.
type Chain struct {
	modules []Module
	seen    map[Module]struct{}
}

// Update rebuilds chain from the wires connected to driver inputs.
// Feedback wires are cut where the walk meets a visited module.
func (c *Chain) Update(driver Module) {
	c.modules = c.modules[:0]
	if c.seen == nil {
		c.seen = make(map[Module]struct{})
	}
	clear(c.seen)
	c.seen[driver] = struct{}{}
	c.visit(driver)
}

func (c *Chain) visit(m Module) {
	inputs := m.base().Inputs
	for i := range inputs {
		w := inputs[i].wire
		if w == nil {
			continue
		}
		src := w.OutputModule
		if _, ok := c.seen[src]; ok {
			continue
		}
		c.seen[src] = struct{}{}
		c.visit(src)
		c.modules = append(c.modules, src)
	}
}

// Modules returns modules of the chain in step order.
func (c *Chain) Modules() []Module {
	return c.modules
}

// Step advances every module of the chain by one frame: inputs are
// pulled, module is stepped and timed, params and plug lights are
// smoothed. Module that panics is quarantined and skipped from then on,
// the rest of the chain keeps running. Engine logs it when the block is
// done.
func (c *Chain) Step(sampleTime float32) {
	for _, m := range c.modules {
		b := m.base()
		for i := range b.Inputs {
			b.Inputs[i].Pull()
		}
		b.step(m)
		b.smooth(sampleTime)
	}
}
