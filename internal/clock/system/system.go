// Package system provides a real clock implementation.
package system

import "time"

// Clock implements crawler.Clock using time.Now. Timestamps are UTC and
// truncated to whole seconds, the resolution of published payload dates.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
