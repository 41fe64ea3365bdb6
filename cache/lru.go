package cache

import "container/list"

// lruIndex tracks entry recency with a doubly-linked list and a key index.
// The front of the list is the most recently used key, the back the least.
// Inserts go to the front, so keys sharing a lastAccessed timestamp fall
// back to insertion order, which keeps eviction deterministic.
// Not safe for concurrent use; callers hold the store lock.
type lruIndex struct {
	order *list.List
	items map[string]*list.Element
}

func newLRUIndex() *lruIndex {
	return &lruIndex{
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// push records a newly inserted key as most recently used.
func (l *lruIndex) push(key string) {
	if elem, ok := l.items[key]; ok {
		l.order.MoveToFront(elem)
		return
	}
	l.items[key] = l.order.PushFront(key)
}

// touch marks key as most recently used.
func (l *lruIndex) touch(key string) {
	if elem, ok := l.items[key]; ok {
		l.order.MoveToFront(elem)
	}
}

// remove drops key from the index.
func (l *lruIndex) remove(key string) {
	if elem, ok := l.items[key]; ok {
		l.order.Remove(elem)
		delete(l.items, key)
	}
}

// oldest returns the least recently used key, or false when empty.
func (l *lruIndex) oldest() (string, bool) {
	elem := l.order.Back()
	if elem == nil {
		return "", false
	}
	return elem.Value.(string), true
}

// reset drops all keys.
func (l *lruIndex) reset() {
	l.order.Init()
	l.items = make(map[string]*list.Element)
}

func (l *lruIndex) len() int {
	return l.order.Len()
}
