package storage

import (
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const updateBufferSize = 63

// Cache is an in-memory Store backed by a single JSON document, one key
// per list kind plus an updated_at stamp.
type Cache struct {
	mu  sync.Mutex
	doc []byte

	updateChans []chan *Update

	// stop will be closed when Close() is called
	stop chan struct{}

	now func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		doc:         []byte("{}"),
		updateChans: make([]chan *Update, 0),
		stop:        make(chan struct{}),
		now:         time.Now,
	}
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning() {
		close(c.stop)

		for _, updateChan := range c.updateChans {
			close(updateChan)
		}
	}

	return nil
}

// Put replaces the cached snapshot for a kind and stamps it.
func (c *Cache) Put(kind string, rows interface{}) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.doc, err = sjson.SetBytes(c.doc, kind+".rows", rows)
	if err != nil {
		return err
	}

	c.doc, err = sjson.SetBytes(c.doc, kind+".updated_at", c.now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	if c.isRunning() {
		raw := []byte(gjson.GetBytes(c.doc, kind).Raw)

		for _, updateChan := range c.updateChans {
			// A consumer that stopped draining loses updates; Put runs
			// on the transport's read goroutine and must never stall.
			select {
			case updateChan <- &Update{Kind: kind, Raw: raw}:
			default:
			}
		}
	}

	return nil
}

// Get returns the cached rows for a kind as raw JSON, or nil if nothing
// has been cached for it yet.
func (c *Cache) Get(kind string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := gjson.GetBytes(c.doc, kind+".rows")
	if !result.Exists() {
		return nil
	}

	return []byte(result.Raw)
}

// Document returns the whole cache as one JSON document.
func (c *Cache) Document() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := make([]byte, len(c.doc))
	copy(doc, c.doc)

	return doc
}

func (c *Cache) Updates() <-chan *Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	updateChan := make(chan *Update, updateBufferSize)
	c.updateChans = append(c.updateChans, updateChan)

	return updateChan
}

// isRunning returns true if Close has not been called. Callers hold c.mu.
func (c *Cache) isRunning() bool {
	select {
	case <-c.stop:
		return false

	default:
		return true
	}
}

var _ Store = (*Cache)(nil)
