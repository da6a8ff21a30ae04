package slot

import (
	"errors"
	"fmt"
)

// ErrMalformedTime is matched by every *MalformedTimeError.
var ErrMalformedTime = errors.New("malformed time")

type Reason string

const (
	ReasonUnparsable      Reason = "unparsable"
	ReasonMissingTimezone Reason = "missing timezone"
	ReasonNotOnTheHour    Reason = "not on the hour"
)

// MalformedTimeError reports which input value was rejected and why.
type MalformedTimeError struct {
	Value  string
	Reason Reason
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("malformed time %q: %s", e.Value, e.Reason)
}

func (e *MalformedTimeError) Is(target error) bool {
	return target == ErrMalformedTime
}
