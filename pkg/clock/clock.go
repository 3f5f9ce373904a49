package clock

import (
	"errors"
	"time"

	clockapi "github.com/jonboulle/clockwork"
)

// Clock is a non-package level wrapper around time that supports stubbing.
// Components that make time-dependent decisions (the regulator, session
// activity stamping) hold one so unit tests can control the clock without
// package level state.
//
// If nothing is stubbed, it defaults to default time behavior in the time
// package.
type Clock struct {
	mock clockapi.FakeClock
}

// Set sets the Clock to a new mock clock at the specified time.Time.
func (c *Clock) Set(t time.Time) {
	c.mock = clockapi.NewFakeClockAt(t)
}

// Add moves the clock forward time.Duration if it is mocked. It will error
// if the clock is not mocked.
func (c *Clock) Add(d time.Duration) error {
	if c.mock == nil {
		return errors.New("clock not mocked")
	}
	c.mock.Advance(d)
	return nil
}

// Reset removes the mock and returns any existing mock if it's set, in case
// lingering time operations are attached to it.
func (c *Clock) Reset() clockapi.FakeClock {
	existing := c.mock
	c.mock = nil
	return existing
}

// Now returns the current time, real or mocked.
func (c *Clock) Now() time.Time {
	if c.mock == nil {
		return time.Now()
	}
	return c.mock.Now()
}

// Since returns the time elapsed since t, real or mocked.
func (c *Clock) Since(t time.Time) time.Duration {
	if c.mock == nil {
		return time.Since(t)
	}
	return c.mock.Since(t)
}

// After waits for the duration to elapse, real or mocked.
func (c *Clock) After(d time.Duration) <-chan time.Time {
	if c.mock == nil {
		return time.After(d)
	}
	return c.mock.After(d)
}
