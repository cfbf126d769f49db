// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Syncora Contributors

package auth

import (
	"time"
)

// Login rate limiting configuration.
const (
	// LockoutDuration is the time a user is locked out after too many failures.
	LockoutDuration = 15 * time.Minute

	// LockoutThreshold is the number of failures that triggers a lockout.
	LockoutThreshold = 7

	// CaptchaThreshold is the number of failures that triggers a CAPTCHA
	// requirement in web clients.
	CaptchaThreshold = 4
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	// Delay is the time to wait before allowing another attempt.
	Delay time.Duration

	// RequiresCaptcha indicates the web client should require CAPTCHA.
	RequiresCaptcha bool

	// IsLockedOut indicates the account is temporarily locked.
	IsLockedOut bool

	// LockoutRemaining is the time until the lockout expires.
	LockoutRemaining time.Duration
}

// CheckFailures evaluates the rate limit state for a failure count.
// lockedUntil is the current lockout timestamp (nil if not locked).
func CheckFailures(failures int, lockedUntil *time.Time) RateLimitResult {
	result := RateLimitResult{}

	if IsLockedOut(lockedUntil) {
		result.IsLockedOut = true
		result.LockoutRemaining = time.Until(*lockedUntil)
		return result
	}

	// Progressive delay: 2^(failures-1) seconds, capped at 32s.
	if failures > 0 && failures < LockoutThreshold {
		result.Delay = time.Duration(1<<(failures-1)) * time.Second
		if result.Delay > 32*time.Second {
			result.Delay = 32 * time.Second
		}
	}

	if failures >= CaptchaThreshold && failures < LockoutThreshold {
		result.RequiresCaptcha = true
	}

	if failures >= LockoutThreshold {
		result.IsLockedOut = true
		result.LockoutRemaining = LockoutDuration
	}

	return result
}

// IsLockedOut returns true if the lockout time is in the future.
func IsLockedOut(lockedUntil *time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(time.Now())
}

// ComputeLockoutTime returns the lockout timestamp for the given failure
// count, or nil below the threshold.
func ComputeLockoutTime(failures int) *time.Time {
	if failures < LockoutThreshold {
		return nil
	}
	lockout := time.Now().Add(LockoutDuration)
	return &lockout
}
