package clock

import "time"

// Clock abstracts the current time so SOA serials can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

// MockClock returns CurrentTime until advanced. It is not safe for concurrent Advance.
type MockClock struct {
	CurrentTime time.Time
}

func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Serial returns the current unix time of c as a zone serial. Times outside the 32-bit range
// wrap, and 0 is mapped to 1.
func Serial(c Clock) uint32 {
	s := uint32(c.Now().Unix())
	if s == 0 {
		s = 1
	}
	return s
}
