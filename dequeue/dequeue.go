// Package dequeue provides a weighted double-ended queue.
//
// Every item carries a numeric weight and the queue keeps a running sum of the
// weights it currently holds. Access is limited to both ends so that every
// operation stays O(1).
package dequeue

type node[T any] struct {
	value  T
	weight float64
	prev   *node[T]
	next   *node[T]
}

// Deque is a doubly linked list of weighted items.
// The zero value is an empty queue ready to use. A Deque is not safe for
// concurrent use.
type Deque[T any] struct {
	head   *node[T]
	tail   *node[T]
	length int
	weight float64
}

// New creates an empty queue
func New[T any]() *Deque[T] {
	return &Deque[T]{}
}

// Len returns the number of items in the queue
func (d *Deque[T]) Len() int {
	return d.length
}

// Weight returns the sum of the weights of the items in the queue, 0 when empty
func (d *Deque[T]) Weight() float64 {
	return d.weight
}

// Clear drops every item
func (d *Deque[T]) Clear() {
	// Unlink nodes so nothing retained elsewhere keeps the chain alive
	for n := d.head; n != nil; {
		next := n.next
		n.prev, n.next = nil, nil
		n = next
	}
	d.head, d.tail = nil, nil
	d.length = 0
	d.weight = 0
}

// PushBack appends value with the given weight at the tail
func (d *Deque[T]) PushBack(value T, weight float64) {
	n := &node[T]{value: value, weight: weight, prev: d.tail}
	if d.length == 0 {
		d.head = n
	} else {
		d.tail.next = n
	}
	d.tail = n
	d.length++
	d.weight += weight
}

// PushFront inserts value with the given weight at the head
func (d *Deque[T]) PushFront(value T, weight float64) {
	n := &node[T]{value: value, weight: weight, next: d.head}
	if d.length == 0 {
		d.tail = n
	} else {
		d.head.prev = n
	}
	d.head = n
	d.length++
	d.weight += weight
}

// PopFront removes and returns the head item
func (d *Deque[T]) PopFront() (T, bool) {
	if d.length == 0 {
		var zero T
		return zero, false
	}

	n := d.head
	d.head = n.next
	if d.head != nil {
		d.head.prev = nil
	}
	return d.unlink(n), true
}

// PopBack removes and returns the tail item
func (d *Deque[T]) PopBack() (T, bool) {
	if d.length == 0 {
		var zero T
		return zero, false
	}

	n := d.tail
	d.tail = n.prev
	if d.tail != nil {
		d.tail.next = nil
	}
	return d.unlink(n), true
}

// PeekFront returns the head item without removing it
func (d *Deque[T]) PeekFront() (T, bool) {
	if d.length == 0 {
		var zero T
		return zero, false
	}
	return d.head.value, true
}

// PeekBack returns the tail item without removing it
func (d *Deque[T]) PeekBack() (T, bool) {
	if d.length == 0 {
		var zero T
		return zero, false
	}
	return d.tail.value, true
}

// PeekFrontWeight returns the weight of the head item
func (d *Deque[T]) PeekFrontWeight() (float64, bool) {
	if d.length == 0 {
		return 0, false
	}
	return d.head.weight, true
}

// unlink finishes the removal of n after the caller fixed the end pointer.
func (d *Deque[T]) unlink(n *node[T]) T {
	d.length--
	d.weight -= n.weight

	if d.length == 0 {
		// Reset exactly to the empty state; float subtraction may leave residue
		d.head, d.tail = nil, nil
		d.weight = 0
	}

	value := n.value
	var zero T
	n.value = zero
	n.prev, n.next = nil, nil
	return value
}
