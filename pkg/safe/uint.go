// Package safe provides helpers for safe numeric conversions with overflow checks.
package safe

import (
	"fmt"
	"math"
)

// Int converts unsigned lengths and counts to int with range validation.
func Int[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](v T) (int, error) {
	if uint64(v) > math.MaxInt {
		return 0, fmt.Errorf("value %d out of int range", uint64(v))
	}
	return int(v), nil
}

