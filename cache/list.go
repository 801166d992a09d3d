// Package cache implements the size-bounded response cache (§4.3 of the
// spec): an intrusive doubly-linked list for O(1) LRU relinking, a ring
// buffer queue used by the registry's reload-event coalescer, and the LRU
// itself.
package cache

// node is an element of a List[T]. The list owns every node it links;
// callers only ever see *node[T] values returned by PushFront/PushBack and
// must not construct one directly, which keeps the prev/next back-pointers
// from escaping into caller-mutable state (teacher's "cyclic raw-pointer"
// pattern, encapsulated per the redesign guidance in the spec's design
// notes).
type node[T any] struct {
	val        T
	prev, next *node[T]
}

// List is a generic intrusive doubly-linked list with sentinel head/tail
// nodes, giving O(1) push-front, push-back, remove, and move-to-front on a
// node handle returned earlier by the list itself.
type List[T any] struct {
	head, tail *node[T]
	n          int
}

// NewList returns an empty, ready-to-use list.
func NewList[T any]() *List[T] {
	l := &List[T]{head: &node[T]{}, tail: &node[T]{}}
	l.head.next = l.tail
	l.tail.prev = l.head
	return l
}

func (l *List[T]) Len() int { return l.n }

// PushFront links val at the MRU end and returns its node handle.
func (l *List[T]) PushFront(val T) *node[T] {
	nd := &node[T]{val: val}
	l.linkAfter(l.head, nd)
	l.n++
	return nd
}

// PushBack links val at the LRU end and returns its node handle.
func (l *List[T]) PushBack(val T) *node[T] {
	nd := &node[T]{val: val}
	l.linkAfter(l.tail.prev, nd)
	l.n++
	return nd
}

// Back returns the LRU-tail node, or nil if the list is empty.
func (l *List[T]) Back() *node[T] {
	if l.n == 0 {
		return nil
	}
	return l.tail.prev
}

// MoveToFront relinks an already-linked node to the MRU end in O(1).
func (l *List[T]) MoveToFront(nd *node[T]) {
	l.unlink(nd)
	l.linkAfter(l.head, nd)
}

// Remove unlinks nd from the list in O(1). nd must belong to l.
func (l *List[T]) Remove(nd *node[T]) {
	l.unlink(nd)
	l.n--
}

func (l *List[T]) Value(nd *node[T]) T { return nd.val }

func (l *List[T]) linkAfter(at, nd *node[T]) {
	nd.prev = at
	nd.next = at.next
	at.next.prev = nd
	at.next = nd
}

func (l *List[T]) unlink(nd *node[T]) {
	nd.prev.next = nd.next
	nd.next.prev = nd.prev
	nd.prev, nd.next = nil, nil
}
