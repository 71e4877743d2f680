package domain

import "errors"

var (
	// ErrUnknownPollutant is returned when a pollutant name has no reduction
	// policy or breakpoint entry.
	ErrUnknownPollutant = errors.New("unknown pollutant")

	// ErrInvalidBreakpoints is returned by BreakpointTable.Validate.
	ErrInvalidBreakpoints = errors.New("invalid breakpoint table")

	// ErrEmptyBundle is returned when a station bundle carries no station identity.
	ErrEmptyBundle = errors.New("empty station bundle")
)
