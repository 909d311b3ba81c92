package inventory

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when an occupancy adjustment references a
// table number with no stored row.
var ErrTableNotFound = errors.New("table not found")

// ErrOccupancyUnderflow is returned when releasing more seats than are
// currently occupied.
var ErrOccupancyUnderflow = errors.New("occupancy underflow")

// CapacityError is returned when an adjustment would oversell a table. It
// is surfaced distinctly so the caller can offer another table.
type CapacityError struct {
	TableNumber int
	Requested   int
	Available   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("table %d is full: requested %d seats, %d available", e.TableNumber, e.Requested, e.Available)
}

// IsCapacityError reports whether err is a table capacity failure.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
