/*
Package mutation provides the queue used to mutate engine state from
control goroutines.

The engine state is owned by the scheduler goroutine while it's running.
The only way to avoid data races and locking on the audio path is to
mutate the state in that same goroutine. Control goroutines wrap every
change into a Mutation and push it into a Queue; the scheduler applies a
bounded number of queued mutations at the start of every tick and sends
the result back to the waiting caller.
*/
package mutation

type (
	// MutatorFunc mutates the object.
	MutatorFunc func() error

	// Mutation is mutator function with a channel to report its result.
	Mutation struct {
		mutator MutatorFunc
		errc    chan error
	}

	// Queue is a bounded queue of mutations.
	Queue chan Mutation
)

// New associates provided mutator with a result channel.
func New(mutator MutatorFunc) Mutation {
	return Mutation{
		mutator: mutator,
		errc:    make(chan error, 1),
	}
}

// Apply mutator function and report the result. It never blocks.
func (m Mutation) Apply() {
	m.errc <- m.mutator()
}

// Wait blocks until mutation is applied and returns its result.
func (m Mutation) Wait() error {
	return <-m.errc
}

// NewQueue returns queue that holds up to size mutations.
func NewQueue(size int) Queue {
	return make(chan Mutation, size)
}

// Push mutation to the queue. Blocks if the queue is full.
func (q Queue) Push(m Mutation) {
	q <- m
}

// ApplyN applies up to limit queued mutations without blocking and
// returns the number of applied mutations.
func (q Queue) ApplyN(limit int) int {
	for i := 0; i < limit; i++ {
		select {
		case m := <-q:
			m.Apply()
		default:
			return i
		}
	}
	return limit
}

// Flush applies all queued mutations without blocking.
func (q Queue) Flush() int {
	n := 0
	for {
		select {
		case m := <-q:
			m.Apply()
			n++
		default:
			return n
		}
	}
}
