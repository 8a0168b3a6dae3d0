package cache

// lruNode is a node of the LRU ring. Nodes carry their key so eviction
// can delete the owning map entry in O(1).
type lruNode[K comparable] struct {
	key  K
	prev *lruNode[K]
	next *lruNode[K]
}

// lruRing is a circular doubly-linked list with a sentinel root. The
// node after root is the most recently used, the node before root the
// least recently used. Not safe for concurrent use; the owning shard
// synchronizes access.
type lruRing[K comparable] struct {
	root lruNode[K]
	len  int
}

func newLRURing[K comparable]() *lruRing[K] {
	r := &lruRing[K]{}
	r.root.prev = &r.root
	r.root.next = &r.root
	return r
}

// Len returns the number of nodes in the ring.
func (r *lruRing[K]) Len() int { return r.len }

// PushFront inserts a new node for key at the front and returns it.
func (r *lruRing[K]) PushFront(key K) *lruNode[K] {
	n := &lruNode[K]{key: key}
	r.insertFront(n)
	r.len++
	return n
}

// MoveToFront marks an existing node as most recently used.
func (r *lruRing[K]) MoveToFront(n *lruNode[K]) {
	if r.root.next == n {
		return
	}
	r.unlink(n)
	r.insertFront(n)
}

// Remove unlinks a node from the ring.
func (r *lruRing[K]) Remove(n *lruNode[K]) {
	r.unlink(n)
	r.len--
}

// RemoveOldest unlinks and returns the key of the least recently used
// node. Reports false when the ring is empty.
func (r *lruRing[K]) RemoveOldest() (K, bool) {
	if r.len == 0 {
		var zero K
		return zero, false
	}
	n := r.root.prev
	r.unlink(n)
	r.len--
	return n.key, true
}

// Clear resets the ring to empty.
func (r *lruRing[K]) Clear() {
	r.root.prev = &r.root
	r.root.next = &r.root
	r.len = 0
}

func (r *lruRing[K]) insertFront(n *lruNode[K]) {
	n.prev = &r.root
	n.next = r.root.next
	r.root.next.prev = n
	r.root.next = n
}

func (r *lruRing[K]) unlink(n *lruNode[K]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}
