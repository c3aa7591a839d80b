package rack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArena(t *testing.T) {
	var a arena[string]
	h1 := a.insert("a")
	h2 := a.insert("b")
	assert.NotEqual(t, h1, h2)

	v, ok := a.get(h1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	assert.True(t, a.remove(h1))
	assert.False(t, a.remove(h1))
	_, ok = a.get(h1)
	assert.False(t, ok)

	// slot is reused with a new generation.
	h3 := a.insert("c")
	assert.Equal(t, h1.index, h3.index)
	assert.NotEqual(t, h1.generation, h3.generation)
	_, ok = a.get(h1)
	assert.False(t, ok)
	v, ok = a.get(h3)
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	_, ok = a.get(Handle{})
	assert.False(t, ok)
	_, ok = a.get(Handle{index: 10, generation: 1})
	assert.False(t, ok)
}

func TestHandleString(t *testing.T) {
	assert.Equal(t, "3:2", Handle{index: 3, generation: 2}.String())
	assert.True(t, Handle{}.IsZero())
}
