// Package sequence hands out frame sequence numbers, wrapping at the uint16
// boundary. Zero is never issued, so it can mark an unset sequence.
package sequence

import (
	"math"
	"sync"
)

var (
	sequence uint16
	mutex    sync.Mutex
)

func Next() uint16 {
	mutex.Lock()
	defer mutex.Unlock()
	if sequence >= math.MaxUint16 {
		sequence = 0
	}
	sequence++
	return sequence
}
