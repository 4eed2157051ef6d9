package config

import "fmt"

// CapturePolicy decides when traces, videos and screenshots are recorded
// and whether they are kept after the test.
type CapturePolicy string

const (
	// CaptureOff never records.
	CaptureOff CapturePolicy = "off"
	// CaptureOn records and keeps every attempt.
	CaptureOn CapturePolicy = "on"
	// CaptureOnFirstRetry records only the first retry of a failed test.
	CaptureOnFirstRetry CapturePolicy = "on-first-retry"
	// CaptureRetainOnFailure records every attempt and keeps failed ones.
	CaptureRetainOnFailure CapturePolicy = "retain-on-failure"
	// CaptureOnlyOnFailure keeps output of failed attempts only. For
	// screenshots it means a screenshot is taken when the test failed.
	CaptureOnlyOnFailure CapturePolicy = "only-on-failure"
)

// ParseCapturePolicy validates a policy name.
func ParseCapturePolicy(s string) (CapturePolicy, error) {
	switch p := CapturePolicy(s); p {
	case CaptureOff, CaptureOn, CaptureOnFirstRetry, CaptureRetainOnFailure, CaptureOnlyOnFailure:
		return p, nil
	}
	return "", fmt.Errorf("unknown capture policy %q", s)
}

// Records reports whether recording has to be active during the given
// attempt (0 is the first run, 1 the first retry).
func (p CapturePolicy) Records(retry int) bool {
	switch p {
	case CaptureOn, CaptureRetainOnFailure, CaptureOnlyOnFailure:
		return true
	case CaptureOnFirstRetry:
		return retry == 1
	}
	return false
}

// Keeps reports whether an artifact recorded during the given attempt is
// kept once the outcome is known.
func (p CapturePolicy) Keeps(retry int, failed bool) bool {
	switch p {
	case CaptureOn:
		return true
	case CaptureOnFirstRetry:
		return retry == 1
	case CaptureRetainOnFailure, CaptureOnlyOnFailure:
		return failed
	}
	return false
}
