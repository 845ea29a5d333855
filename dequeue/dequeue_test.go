package dequeue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeque_Empty(t *testing.T) {
	t.Parallel()

	var d Deque[string]
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0.0, d.Weight())

	_, ok := d.PopFront()
	assert.False(t, ok)
	_, ok = d.PopBack()
	assert.False(t, ok)
	_, ok = d.PeekFront()
	assert.False(t, ok)
	_, ok = d.PeekBack()
	assert.False(t, ok)
	_, ok = d.PeekFrontWeight()
	assert.False(t, ok)
}

func TestDeque_FIFO(t *testing.T) {
	t.Parallel()

	d := New[int]()
	for i := range 5 {
		d.PushBack(i, float64(i))
	}
	require.Equal(t, 5, d.Len())
	assert.Equal(t, 10.0, d.Weight())

	front, ok := d.PeekFront()
	require.True(t, ok)
	assert.Equal(t, 0, front)
	back, ok := d.PeekBack()
	require.True(t, ok)
	assert.Equal(t, 4, back)

	for i := range 5 {
		v, ok := d.PopFront()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0.0, d.Weight())
}

func TestDeque_LIFO(t *testing.T) {
	t.Parallel()

	d := New[string]()
	d.PushBack("a", 1)
	d.PushBack("b", 2)
	d.PushBack("c", 3)

	v, ok := d.PopBack()
	require.True(t, ok)
	assert.Equal(t, "c", v)
	assert.Equal(t, 3.0, d.Weight())

	v, ok = d.PopBack()
	require.True(t, ok)
	assert.Equal(t, "b", v)
	assert.Equal(t, 1.0, d.Weight())

	back, ok := d.PeekBack()
	require.True(t, ok)
	assert.Equal(t, "a", back)
}

func TestDeque_PushFront(t *testing.T) {
	t.Parallel()

	d := New[string]()
	d.PushFront("b", 1)
	d.PushFront("a", 1)
	d.PushBack("c", 1)

	var got []string
	for d.Len() > 0 {
		v, _ := d.PopFront()
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestDeque_MixedEnds(t *testing.T) {
	t.Parallel()

	d := New[int]()
	d.PushBack(2, 0.5)
	d.PushFront(1, 0.25)
	d.PushBack(3, 0.25)

	w, ok := d.PeekFrontWeight()
	require.True(t, ok)
	assert.Equal(t, 0.25, w)

	v, _ := d.PopBack()
	assert.Equal(t, 3, v)
	v, _ = d.PopFront()
	assert.Equal(t, 1, v)
	assert.Equal(t, 0.5, d.Weight())

	front, _ := d.PeekFront()
	back, _ := d.PeekBack()
	assert.Equal(t, 2, front)
	assert.Equal(t, 2, back)
}

func TestDeque_ResetOnLastRemoval(t *testing.T) {
	t.Parallel()

	d := New[*int]()
	x := 1
	// Weights chosen so that float subtraction leaves residue if not reset
	d.PushBack(&x, 0.1)
	d.PushBack(&x, 0.2)
	d.PopFront()
	d.PopBack()

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0.0, d.Weight())
	assert.Nil(t, d.head)
	assert.Nil(t, d.tail)

	// Usable again after draining
	d.PushFront(&x, 1)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 1.0, d.Weight())
}

func TestDeque_PopReleasesNodeLinks(t *testing.T) {
	t.Parallel()

	d := New[int]()
	d.PushBack(1, 1)
	d.PushBack(2, 1)
	old := d.head

	d.PopFront()
	assert.Nil(t, old.next, "popped node should not point into the queue")
	assert.Nil(t, d.head.prev, "new head should not point at the popped node")
}

func TestDeque_Clear(t *testing.T) {
	t.Parallel()

	d := New[int]()
	for i := range 3 {
		d.PushBack(i, 2)
	}
	d.Clear()

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0.0, d.Weight())
	_, ok := d.PeekFront()
	assert.False(t, ok)
}
