// Package rt adjusts scheduling of the engine thread.
package rt

// Niceness is the priority requested for the engine thread.
const Niceness = -10
