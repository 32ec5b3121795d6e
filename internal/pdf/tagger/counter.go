package tagger

import "fmt"

// Counter hands out document-wide MCIDs. A single Counter is owned by one
// tagging run and only moves forward.
type Counter struct {
	next int
}

// NewCounter returns a counter starting at zero
func NewCounter() *Counter {
	return &Counter{}
}

// Next is the first MCID not yet assigned
func (c *Counter) Next() int {
	return c.next
}

// Advance moves the counter to to. Moving backwards would hand out a
// duplicate ID and panics.
func (c *Counter) Advance(to int) {
	if to < c.next {
		panic(fmt.Sprintf("tagger: counter moved backwards from %d to %d", c.next, to))
	}
	c.next = to
}
