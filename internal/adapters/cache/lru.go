package cache

import "sync"

type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

// SeenLRU is a thread-safe, bounded set of recently seen keys. The least
// recently seen key is forgotten once capacity is reached.
type SeenLRU struct {
	mu       sync.Mutex
	index    map[string]*lruNode
	head     *lruNode // least recently seen
	tail     *lruNode // most recently seen
	capacity int
}

func NewSeenLRU(capacity int) *SeenLRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &SeenLRU{
		index:    make(map[string]*lruNode, capacity),
		capacity: capacity,
	}
}

// Seen reports whether key was already recorded, recording it if not.
// Either way key becomes the most recently seen.
func (c *SeenLRU) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if nd, ok := c.index[key]; ok {
		c.moveToTail(nd)
		return true
	}

	if len(c.index) >= c.capacity {
		c.evictHead()
	}
	nd := &lruNode{key: key}
	c.appendToTail(nd)
	c.index[key] = nd
	return false
}

func (c *SeenLRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *SeenLRU) appendToTail(nd *lruNode) {
	if c.tail == nil {
		c.head = nd
		c.tail = nd
		return
	}
	nd.prev = c.tail
	c.tail.next = nd
	c.tail = nd
}

func (c *SeenLRU) moveToTail(nd *lruNode) {
	if nd == c.tail {
		return
	}
	c.unlink(nd)
	c.appendToTail(nd)
}

func (c *SeenLRU) evictHead() {
	if c.head == nil {
		return
	}
	evicted := c.head
	c.unlink(evicted)
	delete(c.index, evicted.key)
}

func (c *SeenLRU) unlink(nd *lruNode) {
	if nd.prev != nil {
		nd.prev.next = nd.next
	} else {
		c.head = nd.next
	}
	if nd.next != nil {
		nd.next.prev = nd.prev
	} else {
		c.tail = nd.prev
	}
	nd.prev = nil
	nd.next = nil
}
