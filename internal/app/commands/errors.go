package commands

import "errors"

var (
	ErrUnhandledCommand = errors.New("unhandled command kind")
	// ErrPublishFailed is retryable: the event was not acknowledged by the log.
	ErrPublishFailed = errors.New("publish failed")
	ErrNotProduct    = errors.New("command does not target a product")
)
