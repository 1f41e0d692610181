package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	g := NewGate()

	_, ok := g.Pending()
	assert.False(t, ok)
	_, _, ok = g.Confirm()
	assert.False(t, ok, "closed gate has nothing to confirm")

	assert.Empty(t, g.Request("a", SurfaceList))
	assert.Empty(t, g.Request("a", SurfaceDetail), "same target is not a replacement")
	assert.Equal(t, "a", g.Request("b", SurfaceDetail))

	id, surface, ok := g.Confirm()
	assert.True(t, ok)
	assert.Equal(t, "b", id)
	assert.Equal(t, SurfaceDetail, surface)

	_, _, ok = g.Confirm()
	assert.False(t, ok, "confirm closes the gate")

	g.Request("c", SurfaceList)
	assert.True(t, g.Cancel())
	assert.False(t, g.Cancel())
	_, ok = g.Pending()
	assert.False(t, ok)
}
