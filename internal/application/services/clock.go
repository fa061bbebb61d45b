package services

import "time"

// Clock abstracts wall-clock reads so sweeps and completions can be driven
// with a controlled time in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
