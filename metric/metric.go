// Package metric exposes per module type counters through expvar.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

const modulesLabel = "rack.modules"

const (
	// ModuleCounter counts registered modules of the type.
	ModuleCounter = "Modules"
	// StepCounter counts per-frame steps.
	StepCounter = "Steps"
	// CPUCounter accumulates time spent in steps.
	CPUCounter = "CPU"
	// PanicCounter counts modules quarantined after panic.
	PanicCounter = "Panics"
)

var (
	modules = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		ModuleCounter,
		StepCounter,
		CPUCounter,
		PanicCounter,
	}
)

// Get metrics values for provided module type.
func Get(module interface{}) map[string]string {
	return getCounters(getType(module))
}

// GetAll returns counters for all measured module types.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	modules.Lock()
	defer modules.Unlock()
	for moduleType := range modules.m {
		m[moduleType] = getCounters(moduleType)
	}
	return m
}

func getCounters(moduleType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(moduleType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Meter captures counters of a single registered module. Nil meter is
// valid and measures nothing.
type Meter struct {
	metric metric
}

// NewMeter registers module and returns its meter.
func NewMeter(module interface{}) *Meter {
	m := modules.get(getType(module))
	m.modules.Add(1)
	return &Meter{metric: m}
}

// Measure captures metrics after module step.
func (m *Meter) Measure(cpu time.Duration) {
	if m == nil {
		return
	}
	m.metric.steps.Add(1)
	m.metric.cpu.add(cpu)
}

// Panic captures quarantine of the module.
func (m *Meter) Panic() {
	if m == nil {
		return
	}
	m.metric.panics.Add(1)
}

// Release unregisters the module.
func (m *Meter) Release() {
	if m == nil {
		return
	}
	m.metric.modules.Add(-1)
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(moduleType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[moduleType]; ok {
		// return existing metric if available
		return metric
	}
	metric := newMetric(moduleType)
	m.m[moduleType] = metric
	return metric
}

type metric struct {
	modules *expvar.Int
	steps   *expvar.Int
	panics  *expvar.Int
	cpu     *duration
}

func newMetric(moduleType string) metric {
	m := metric{
		modules: expvar.NewInt(key(moduleType, ModuleCounter)),
		steps:   expvar.NewInt(key(moduleType, StepCounter)),
		panics:  expvar.NewInt(key(moduleType, PanicCounter)),
		cpu:     &duration{},
	}
	expvar.Publish(key(moduleType, CPUCounter), m.cpu)
	return m
}

func key(moduleType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", modulesLabel, moduleType, counter)
}

func getType(module interface{}) string {
	rv := reflect.ValueOf(module)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}
