package rack

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/rack/internal/rt"
)

// run is the scheduler goroutine. It executes ticks in blocks and paces
// them against the wall clock until cancel is closed.
func (e *Engine) run(cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if e.realtime {
		if err := rt.Raise(); err != nil {
			e.log.WithError(err).Warn("failed to raise scheduler priority")
		}
	}

	var ahead time.Duration
	last := time.Now()
	for {
		select {
		case <-cancel:
			return
		default:
		}
		for i := 0; i < e.blockSteps; i++ {
			e.tick()
		}

		// engine may run ahead of the wall clock, but not too far.
		step := time.Duration(float64(e.blockSteps) / float64(e.SampleRate()) * float64(time.Second))
		now := time.Now()
		elapsed := now.Sub(last)
		last = now
		ahead += step
		ahead -= 2 * elapsed
		if ahead < 0 {
			ahead = 0
		}
		if ahead > e.aheadMax {
			select {
			case <-cancel:
				return
			case <-time.After(step):
			}
		}
	}
}

// tick advances the graph by one frame. It's executed by the scheduler
// goroutine or by Tick when scheduler is stopped.
func (e *Engine) tick() {
	e.queue.ApplyN(e.mutationsPerTick)
	if e.Paused() {
		return
	}
	for _, w := range e.reg.wires {
		w.dst.Value = w.src.Value
		w.dst.Active = true
	}
	for _, me := range e.reg.modules {
		if me.driven || me.base.fault != nil {
			continue
		}
		e.step(me)
	}
	sampleTime := e.SampleTime()
	for _, me := range e.reg.modules {
		if !me.driven {
			me.base.smooth(sampleTime)
		}
	}
}

// step executes single module step.
func (e *Engine) step(me *moduleEntry) {
	me.base.step(me.module)
	if me.base.fault != nil {
		e.quarantine(me)
	}
}

// quarantine logs panicked module once.
func (e *Engine) quarantine(me *moduleEntry) {
	if me.reported {
		return
	}
	me.reported = true
	e.log.WithFields(logrus.Fields{
		"module": me.base.ID(),
		"panic":  me.base.fault,
	}).Error("module quarantined")
}
