package rack

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Option provides a way to set functional parameters to engine.
type Option func(e *Engine) error

const (
	// DefaultSampleRate is used if no sample rate option provided.
	DefaultSampleRate = 44100
	// DefaultQueueSize is capacity of the mutation queue.
	DefaultQueueSize = 64
	// DefaultMutationsPerTick bounds mutations applied in a single tick.
	DefaultMutationsPerTick = 4
	// DefaultBlockSteps is number of ticks between clock checks.
	DefaultBlockSteps = 64
	// DefaultAheadMax is how far engine may run ahead of wall clock
	// before it starts to sleep.
	DefaultAheadMax = time.Second
)

// WithSampleRate sets initial sample rate.
func WithSampleRate(sampleRate float32) Option {
	return func(e *Engine) error {
		if err := validSampleRate(sampleRate); err != nil {
			return err
		}
		e.storeSampleRate(sampleRate)
		return nil
	}
}

// WithLogger sets engine logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) error {
		e.log = l
		return nil
	}
}

// WithMetrics enables per module type metrics.
func WithMetrics() Option {
	return func(e *Engine) error {
		e.metrics = true
		return nil
	}
}

// WithQueueSize sets capacity of mutation queue.
func WithQueueSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			return fmt.Errorf("queue size %d: %w", size, ErrIndexOutOfRange)
		}
		e.queueSize = size
		return nil
	}
}

// WithMutationsPerTick bounds number of mutations applied at the start
// of a single tick.
func WithMutationsPerTick(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return fmt.Errorf("mutations per tick %d: %w", n, ErrIndexOutOfRange)
		}
		e.mutationsPerTick = n
		return nil
	}
}

// WithBlockSteps sets number of ticks executed between clock checks.
func WithBlockSteps(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return fmt.Errorf("block steps %d: %w", n, ErrIndexOutOfRange)
		}
		e.blockSteps = n
		return nil
	}
}

// WithAheadMax sets how far engine may run ahead of wall clock. Zero
// value makes engine follow wall clock strictly.
func WithAheadMax(d time.Duration) Option {
	return func(e *Engine) error {
		e.aheadMax = d
		return nil
	}
}

// WithRealtime requests raised priority for the scheduler thread.
func WithRealtime() Option {
	return func(e *Engine) error {
		e.realtime = true
		return nil
	}
}

// WithSeed sets seed of the random source passed to Randomize hooks.
func WithSeed(seed int64) Option {
	return func(e *Engine) error {
		e.seed = seed
		return nil
	}
}
