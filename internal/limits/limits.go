package limits

import (
	"errors"
	"fmt"
)

// DefaultMaxAlloc is the decode allocation budget used by Default.
const DefaultMaxAlloc uint64 = 512 * 1024 * 1024

// ErrExceeded is returned when a reservation or a dimension check would go
// past a configured ceiling.
var ErrExceeded = errors.New("limits exceeded")

// Limits is the resource budget for a single decode. A zero ceiling means
// unset. The budget is consumed by Reserve and never restored, so a Limits
// value must not be shared between decodes.
type Limits struct {
	MaxImageWidth  uint32
	MaxImageHeight uint32
	MaxAlloc       uint64

	reserved uint64
}

func Default() *Limits {
	return &Limits{MaxAlloc: DefaultMaxAlloc}
}

// Reserve takes amount bytes from the allocation budget.
func (l *Limits) Reserve(amount uint64) error {
	if l.MaxAlloc == 0 {
		return nil
	}
	remaining := l.MaxAlloc - l.reserved
	if remaining < amount {
		return fmt.Errorf("%w: reserving %d bytes with %d remaining", ErrExceeded, amount, remaining)
	}
	l.reserved += amount
	return nil
}

// CheckDimensions rejects sizes larger than the width or height ceilings.
func (l *Limits) CheckDimensions(width, height uint32) error {
	if l.MaxImageWidth != 0 && width > l.MaxImageWidth {
		return fmt.Errorf("%w: width %d is larger than %d", ErrExceeded, width, l.MaxImageWidth)
	}
	if l.MaxImageHeight != 0 && height > l.MaxImageHeight {
		return fmt.Errorf("%w: height %d is larger than %d", ErrExceeded, height, l.MaxImageHeight)
	}
	return nil
}

// Remaining reports the unreserved budget, and false when no budget is set.
func (l *Limits) Remaining() (uint64, bool) {
	if l.MaxAlloc == 0 {
		return 0, false
	}
	return l.MaxAlloc - l.reserved, true
}
