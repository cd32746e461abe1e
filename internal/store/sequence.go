package store

import "sync"

// Counter hands out increasing ids for one record kind. Ids seen on read are
// observed so new ids never reuse them within the process. A fresh process
// that writes before reading starts from zero again.
type Counter struct {
	mu   sync.Mutex
	last int64
}

// Observe raises the counter to id when id is larger.
func (c *Counter) Observe(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id > c.last {
		c.last = id
	}
}

// Next returns a new id greater than every id observed or issued.
func (c *Counter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last++
	return c.last
}

// Last returns the largest id observed or issued.
func (c *Counter) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Sequence groups the counters of every record kind.
type Sequence struct {
	Investments Counter
	Entries     Counter
	Forecasts   Counter
}

// NewSequence returns counters starting at zero.
func NewSequence() *Sequence {
	return &Sequence{}
}
