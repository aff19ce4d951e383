package fetcher

import (
	"errors"
	"fmt"
)

// ErrChallenge indicates the page served a bot challenge. Fatal to the
// entire session, never retried.
var ErrChallenge = errors.New("bot challenge detected")

// ErrTimeout indicates the page did not load within the fetch timeout.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrLoad indicates the page produced no usable document.
type ErrLoad struct {
	Err error
}

func (e ErrLoad) Error() string {
	return fmt.Errorf("load: %w", e.Err).Error()
}

func (e ErrLoad) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, ErrChallenge) {
		return "captcha"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var load ErrLoad
	if errors.As(err, &load) {
		return "load_error"
	}
	return "other"
}
