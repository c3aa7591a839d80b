package rack

// state identifies one of the possible states engine can be in.
type state int

// states
const (
	ready   state = iota // Ready means that scheduler is stopped and graph is mutated inline.
	running              // Running means that scheduler goroutine owns the graph.
	closed               // Closed means that engine released its modules and cannot be used.
)

func (s state) String() string {
	switch s {
	case ready:
		return "ready"
	case running:
		return "running"
	case closed:
		return "closed"
	}
	return "unknown"
}
