package service

import "errors"

var (
	// ErrBotNotFound is returned by RunBotByID for unknown IDs.
	ErrBotNotFound = errors.New("bot not found")
	// ErrRunInProgress is returned when another invocation holds the run lock.
	ErrRunInProgress = errors.New("a bot run is already in progress")
	// ErrInvalidForecast marks generated output that fails validation.
	ErrInvalidForecast = errors.New("invalid generated forecast")
)
