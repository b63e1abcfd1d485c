package cache

// entry is an element of an intrusive LRU list.
type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

// lru is a doubly-linked recency list. front is the most recently used
// entry, back the least. Not safe for concurrent use.
type lru[K comparable, V any] struct {
	front *entry[K, V]
	back  *entry[K, V]
	n     int
}

func (l *lru[K, V]) len() int { return l.n }

func (l *lru[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.front
	if l.front != nil {
		l.front.prev = e
	}
	l.front = e
	if l.back == nil {
		l.back = e
	}
	l.n++
}

func (l *lru[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.front = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.back = e.prev
	}
	e.prev, e.next = nil, nil
	l.n--
}

func (l *lru[K, V]) touch(e *entry[K, V]) {
	if e == l.front {
		return
	}
	l.remove(e)
	l.pushFront(e)
}

// popBack removes and returns the least recently used entry, or nil.
func (l *lru[K, V]) popBack() *entry[K, V] {
	e := l.back
	if e != nil {
		l.remove(e)
	}
	return e
}
