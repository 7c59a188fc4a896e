package transmission

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is wrapped by every rejected shift.
var ErrIllegalTransition = errors.New("illegal transition")

var (
	ErrAtTop         = fmt.Errorf("%w: already in top gear", ErrIllegalTransition)
	ErrAtBottom      = fmt.Errorf("%w: already in first gear", ErrIllegalTransition)
	ErrShiftInFlight = fmt.Errorf("%w: shift in progress", ErrIllegalTransition)
)
