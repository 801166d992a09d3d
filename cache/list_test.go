package cache

import "testing"

func TestListPushFrontAndBack(t *testing.T) {
	l := NewList[string]()
	if l.Len() != 0 || l.Back() != nil {
		t.Fatalf("new list must be empty")
	}

	a := l.PushFront("a")
	b := l.PushFront("b")
	c := l.PushFront("c")

	if l.Len() != 3 {
		t.Fatalf("len = %d, want 3", l.Len())
	}
	if l.Value(l.Back()) != "a" {
		t.Fatalf("back = %v, want a", l.Value(l.Back()))
	}
	_ = b
	_ = c
}

func TestListMoveToFront(t *testing.T) {
	l := NewList[int]()
	n1 := l.PushFront(1)
	l.PushFront(2)
	n3 := l.PushFront(3)

	l.MoveToFront(n1)
	if l.Value(l.Back()) != 2 {
		t.Fatalf("back = %v, want 2 after moving 1 to front", l.Value(l.Back()))
	}
	_ = n3
}

func TestListRemove(t *testing.T) {
	l := NewList[int]()
	n1 := l.PushFront(1)
	n2 := l.PushFront(2)
	l.PushFront(3)

	l.Remove(n2)
	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2", l.Len())
	}
	if l.Value(l.Back()) != 1 {
		t.Fatalf("back = %v, want 1", l.Value(l.Back()))
	}

	l.Remove(n1)
	if l.Len() != 1 {
		t.Fatalf("len = %d, want 1", l.Len())
	}
}
