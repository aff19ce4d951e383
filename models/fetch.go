package models

// FetchStatus tags the outcome of a single listing-page fetch.
type FetchStatus int

const (
	// FetchOK means the page loaded and parsed.
	FetchOK FetchStatus = iota
	// FetchCaptcha means a bot challenge was detected; fatal to the session.
	FetchCaptcha
	// FetchTimeout means the page did not load within the fetch timeout.
	FetchTimeout
	// FetchLoadError means the page produced no usable document.
	FetchLoadError
)

// String returns the metrics/log label for the status.
func (s FetchStatus) String() string {
	switch s {
	case FetchOK:
		return "ok"
	case FetchCaptcha:
		return "captcha"
	case FetchTimeout:
		return "timeout"
	case FetchLoadError:
		return "load_error"
	default:
		return "unknown"
	}
}

// Retryable reports whether the status permits retrying the same page.
func (s FetchStatus) Retryable() bool {
	return s == FetchTimeout || s == FetchLoadError
}

// FetchOutcome is produced once per (segment, page) request and consumed
// immediately. Reviews and HasNext are only meaningful when Status is FetchOK.
type FetchOutcome struct {
	Status  FetchStatus
	Reviews []*ReviewRecord
	HasNext bool
	Err     error
}
