// Cliprank - Multi-Strategy Video Recommendation Service
// Copyright 2026 Cliprank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cliprank/cliprank

package inference

import "errors"

// Sentinel errors forming the failure taxonomy for remote scoring.
// Strategies propagate these unchanged; the ranking engine matches on
// them with errors.Is to drive its fallback chain.
var (
	// ErrRemoteUnavailable indicates transport failure, timeout or
	// rate-limit exhaustion after the retry budget was spent.
	ErrRemoteUnavailable = errors.New("remote inference unavailable")

	// ErrRemoteMalformed indicates a response whose shape did not match
	// what the caller expected (count mismatch, unparsable payload).
	ErrRemoteMalformed = errors.New("remote inference response malformed")

	// ErrNotConfigured indicates the endpoint has no configuration for
	// this deployment. Permanent for the process lifetime; never retried.
	ErrNotConfigured = errors.New("inference endpoint not configured")
)

// Retryable reports whether an error class may succeed on a later
// invocation. Configuration errors are permanent.
func Retryable(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrRemoteMalformed)
}
