// Package retry implements the RetryPolicy x BackoffPolicy pair that
// decorates an executor pool (§4.6): after a failed execute, it decides
// whether another attempt is allowed and how long to wait first.
package retry

import "time"

// RetryPolicyKind discriminates the three retry policies.
type RetryPolicyKind int

const (
	RetryNone RetryPolicyKind = iota
	RetryMaxAttempts
	RetryInfinite
)

// RetryPolicy controls whether attempt failedAttempts+1 is allowed.
type RetryPolicy struct {
	Kind     RetryPolicyKind
	Attempts uint32 // only meaningful for RetryMaxAttempts
}

// ShouldRetry reports whether another attempt should be made after
// failedAttempts failures so far. The very first attempt (failedAttempts
// == 0) is always allowed regardless of policy.
func (p RetryPolicy) ShouldRetry(failedAttempts uint32) bool {
	if failedAttempts == 0 {
		return true
	}
	switch p.Kind {
	case RetryInfinite:
		return true
	case RetryMaxAttempts:
		return p.Attempts+1 > failedAttempts
	default:
		return false
	}
}

// BackoffPolicyKind discriminates the three backoff policies.
type BackoffPolicyKind int

const (
	BackoffNone BackoffPolicyKind = iota
	BackoffFixed
	BackoffVariable
)

// BackoffPolicy controls how long to wait before a retry attempt.
type BackoffPolicy struct {
	Kind      BackoffPolicyKind
	FixedMs   uint32   // only meaningful for BackoffFixed
	VariableMs []uint32 // only meaningful for BackoffVariable
}

// ShouldWait returns the wait duration (and whether one applies) before
// retry attempt failedAttempts+1. No wait is owed before the first
// attempt. For Variable, the wait after the i-th failure is
// VariableMs[i-1], saturating at the last element once failedAttempts
// exceeds the slice length; a zero entry means "no wait".
func (p BackoffPolicy) ShouldWait(failedAttempts uint32) (time.Duration, bool) {
	if failedAttempts == 0 {
		return 0, false
	}
	switch p.Kind {
	case BackoffFixed:
		if p.FixedMs > 0 {
			return time.Duration(p.FixedMs) * time.Millisecond, true
		}
		return 0, false
	case BackoffVariable:
		if len(p.VariableMs) == 0 {
			return 0, false
		}
		idx := int(failedAttempts - 1)
		if idx >= len(p.VariableMs) {
			idx = len(p.VariableMs) - 1
		}
		ms := p.VariableMs[idx]
		if ms > 0 {
			return time.Duration(ms) * time.Millisecond, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Strategy pairs a RetryPolicy with a BackoffPolicy (§4.6).
type Strategy struct {
	RetryPolicy   RetryPolicy
	BackoffPolicy BackoffPolicy
}

// Next combines both policies into the single decision an executor pool
// decorator needs: whether to retry, and if so, how long to wait first.
func (s Strategy) Next(failedAttempts uint32) (retry bool, wait time.Duration) {
	retry = s.RetryPolicy.ShouldRetry(failedAttempts)
	w, _ := s.BackoffPolicy.ShouldWait(failedAttempts)
	return retry, w
}
