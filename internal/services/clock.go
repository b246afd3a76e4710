package services

import (
	"time"

	"github.com/samber/do"
)

// Clock is the time source of the services; tests provide a fixed one.
type Clock func() time.Time

func resolveClock(container *do.Injector) Clock {
	clock, err := do.Invoke[Clock](container)
	if err != nil || clock == nil {
		return time.Now
	}
	return clock
}
