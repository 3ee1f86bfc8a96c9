package notifier

import (
	"container/list"
	"sync"
)

// threadCache is a bounded LRU map from process ID to Slack thread
// timestamp. Long-lived processes accumulate many distinct process IDs;
// the cap keeps the correlation map from growing without bound.
type threadCache struct {
	mu      sync.Mutex
	cap     int
	order   *list.List
	entries map[string]*list.Element
}

type threadEntry struct {
	processID string
	threadTS  string
}

func newThreadCache(capacity int) *threadCache {
	return &threadCache{
		cap:     capacity,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func (c *threadCache) Get(processID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[processID]
	if !ok {
		return "", false
	}

	c.order.MoveToFront(elem)

	return elem.Value.(*threadEntry).threadTS, true
}

func (c *threadCache) Put(processID, threadTS string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[processID]; ok {
		elem.Value.(*threadEntry).threadTS = threadTS
		c.order.MoveToFront(elem)

		return
	}

	elem := c.order.PushFront(&threadEntry{processID: processID, threadTS: threadTS})
	c.entries[processID] = elem

	if c.order.Len() > c.cap {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*threadEntry).processID)
		}
	}
}

func (c *threadCache) Delete(processID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[processID]; ok {
		c.order.Remove(elem)
		delete(c.entries, processID)
	}
}

func (c *threadCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
