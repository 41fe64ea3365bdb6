package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUIndexOrder(t *testing.T) {
	l := newLRUIndex()
	_, ok := l.oldest()
	assert.False(t, ok)

	l.push("a")
	l.push("b")
	l.push("c")
	oldest, ok := l.oldest()
	assert.True(t, ok)
	assert.Equal(t, "a", oldest)

	l.touch("a")
	oldest, _ = l.oldest()
	assert.Equal(t, "b", oldest)
}

func TestLRUIndexRemove(t *testing.T) {
	l := newLRUIndex()
	l.push("a")
	l.push("b")
	l.remove("a")
	assert.Equal(t, 1, l.len())
	oldest, ok := l.oldest()
	assert.True(t, ok)
	assert.Equal(t, "b", oldest)
	// Removing an absent key is a no-op.
	l.remove("ghost")
	assert.Equal(t, 1, l.len())
}

func TestLRUIndexPushExistingMovesToFront(t *testing.T) {
	l := newLRUIndex()
	l.push("a")
	l.push("b")
	l.push("a")
	assert.Equal(t, 2, l.len())
	oldest, _ := l.oldest()
	assert.Equal(t, "b", oldest)
}

func TestLRUIndexReset(t *testing.T) {
	l := newLRUIndex()
	l.push("a")
	l.push("b")
	l.reset()
	assert.Equal(t, 0, l.len())
	_, ok := l.oldest()
	assert.False(t, ok)
}
