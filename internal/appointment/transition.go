package appointment

import (
	"fmt"
	"strings"
)

var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusCreated:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: {},
	StatusCompleted: {},
}

// IsValidTransition reports whether an appointment may move from current to proposed.
// Unknown source statuses are never valid.
func IsValidTransition(current, proposed AppointmentStatus) bool {
	allowed, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == proposed {
			return true
		}
	}
	return false
}

func ParseStatus(raw string) (AppointmentStatus, error) {
	s := AppointmentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := validTransitions[s]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, raw)
	}
	return s, nil
}
