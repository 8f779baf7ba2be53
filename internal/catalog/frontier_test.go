package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrontierFIFOAndVisited(t *testing.T) {
	t.Parallel()

	f := newFrontier("a")
	assert.True(t, f.push("b"))
	assert.False(t, f.push(""))

	u, ok := f.pop()
	assert.True(t, ok)
	assert.Equal(t, "a", u)

	assert.False(t, f.push("a"), "visited urls are not re-enqueued")
	assert.True(t, f.push("b"), "pending duplicates are tolerated")
	assert.True(t, f.hasNext())

	u, ok = f.pop()
	assert.True(t, ok)
	assert.Equal(t, "b", u)

	// The second "b" was visited in between and is skipped without a turn.
	assert.False(t, f.hasNext())
	_, ok = f.pop()
	assert.False(t, ok)
}
