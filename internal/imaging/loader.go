package imaging

import (
	"container/list"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// DefaultCacheFrames is the frame capacity used when NewFrameCache is given
// a non-positive size.
const DefaultCacheFrames = 256

// FrameCache holds decoded frames keyed by path, evicting the least recently
// used frame once it holds more than its capacity. It is safe for concurrent
// use.
type FrameCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	frames   map[string]*list.Element

	hits, misses uint64
}

type cachedFrame struct {
	path string
	img  image.Image
}

// NewFrameCache creates a cache holding at most capacity frames.
func NewFrameCache(capacity int) *FrameCache {
	if capacity <= 0 {
		capacity = DefaultCacheFrames
	}
	return &FrameCache{
		capacity: capacity,
		order:    list.New(),
		frames:   make(map[string]*list.Element),
	}
}

// Load returns the frame at path, decoding it on a miss. JPEG EXIF
// orientation is applied.
func (c *FrameCache) Load(path string) (image.Image, error) {
	c.mu.Lock()
	if el, ok := c.frames[path]; ok {
		c.order.MoveToFront(el)
		c.hits++
		img := el.Value.(*cachedFrame).img
		c.mu.Unlock()
		return img, nil
	}
	c.misses++
	c.mu.Unlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load frame %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.frames[path]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cachedFrame).img, nil
	}
	c.frames[path] = c.order.PushFront(&cachedFrame{path: path, img: img})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.frames, oldest.Value.(*cachedFrame).path)
	}
	return img, nil
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts since creation.
func (c *FrameCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear drops every cached frame.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.frames = make(map[string]*list.Element)
}
