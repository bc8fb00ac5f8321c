//go:build portal_deadlock

// Build with -tags portal_deadlock to have every lock of the module
// checked by go-deadlock.
package sync

import (
	"github.com/sasha-s/go-deadlock"
)

type (
	Mutex     = deadlock.Mutex
	RWMutex   = deadlock.RWMutex
	Once      = deadlock.Once
	WaitGroup = deadlock.WaitGroup
)
