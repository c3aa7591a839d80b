package mutation_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/rack/internal/mutation"
)

// mutableMock used to set up test cases for mutators
type mutableMock struct {
	value int
}

// AddDelta returns mutation that adds delta to the value.
func (m *mutableMock) AddDelta(delta int) mutation.Mutation {
	return mutation.New(func() error {
		m.value += delta
		return nil
	})
}

func TestApplyN(t *testing.T) {
	var tests = []struct {
		queued   int
		limit    int
		applied  int
		expected int
	}{
		{
			queued:   0,
			limit:    4,
			applied:  0,
			expected: 0,
		},
		{
			queued:   2,
			limit:    4,
			applied:  2,
			expected: 20,
		},
		{
			queued:   6,
			limit:    4,
			applied:  4,
			expected: 40,
		},
	}

	for _, c := range tests {
		m := &mutableMock{}
		q := mutation.NewQueue(8)
		pushed := make([]mutation.Mutation, 0, c.queued)
		for i := 0; i < c.queued; i++ {
			mut := m.AddDelta(10)
			q.Push(mut)
			pushed = append(pushed, mut)
		}
		assert.Equal(t, c.applied, q.ApplyN(c.limit))
		assert.Equal(t, c.expected, m.value)
		for i := 0; i < c.applied; i++ {
			assert.NoError(t, pushed[i].Wait())
		}
		assert.Equal(t, c.queued-c.applied, q.Flush())
		assert.Equal(t, c.queued*10, m.value)
	}
}

func TestMutationError(t *testing.T) {
	errTest := errors.New("test error")
	q := mutation.NewQueue(1)
	m := mutation.New(func() error {
		return errTest
	})
	q.Push(m)
	assert.Equal(t, 1, q.ApplyN(10))
	assert.Equal(t, errTest, m.Wait())
}

func TestWaitConcurrent(t *testing.T) {
	q := mutation.NewQueue(1)
	m := &mutableMock{}
	done := make(chan error)
	go func() {
		mut := m.AddDelta(5)
		q.Push(mut)
		done <- mut.Wait()
	}()
	for q.ApplyN(1) == 0 {
		runtime.Gosched()
	}
	assert.NoError(t, <-done)
	assert.Equal(t, 5, m.value)
}
