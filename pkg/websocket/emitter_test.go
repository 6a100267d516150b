package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterOrder(t *testing.T) {
	var e Emitter[int]
	var got []string
	e.Subscribe(func(v int) { got = append(got, "first") })
	e.Subscribe(func(v int) { got = append(got, "second") })
	e.Subscribe(func(v int) { got = append(got, "third") })

	e.Emit(1)
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestEmitterCancel(t *testing.T) {
	var e Emitter[int]
	var got []string
	e.Subscribe(func(v int) { got = append(got, "keep") })
	cancel := e.Subscribe(func(v int) { got = append(got, "drop") })

	cancel()
	cancel()
	e.Emit(1)

	assert.Equal(t, []string{"keep"}, got)
	assert.Equal(t, 1, e.Len())
}

func TestEmitterPanicIsolation(t *testing.T) {
	var e Emitter[int]
	var after bool
	e.Subscribe(func(v int) { panic("boom") })
	e.Subscribe(func(v int) { after = true })

	e.Emit(1)
	assert.True(t, after)
}

func TestEmitterReset(t *testing.T) {
	var e Emitter[int]
	var calls int
	e.Subscribe(func(v int) { calls++ })
	e.Reset()
	e.Emit(1)
	assert.Zero(t, calls)
	assert.Zero(t, e.Len())
}

func TestEmitterNilSafe(t *testing.T) {
	var e *Emitter[int]
	cancel := e.Subscribe(func(v int) {})
	cancel()
	e.Emit(1)
	e.Reset()
	assert.Zero(t, e.Len())
}
