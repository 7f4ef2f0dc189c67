// Copyright 2024 ResourceFM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package util provides shared helpers for resourcefm: the lock retry
// policy of the SQLite store and background process management for the
// daemon.
package util

import (
	"context"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// LockRetry retries work that lost a lock race the SQLite busy timeout
// could not absorb.
type LockRetry struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultLockRetry backs off from 100ms, capped at 300ms, over three attempts.
var DefaultLockRetry = LockRetry{Attempts: 3, Delay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

func (p LockRetry) options(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Attempts(p.Attempts),
		retry.Delay(p.Delay),
		retry.MaxDelay(p.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsDatabaseLocked),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	}
}

// Do runs fn until it succeeds, fails with a non-lock error, or the
// attempts run out.
func (p LockRetry) Do(ctx context.Context, fn func() error) error {
	return retry.Do(fn, p.options(ctx)...)
}

// DoValue is Do for functions returning a value.
func DoValue[T any](ctx context.Context, p LockRetry, fn func() (T, error)) (T, error) {
	return retry.DoWithData(fn, p.options(ctx)...)
}

// IsDatabaseLocked reports whether err is a transient SQLite lock error.
func IsDatabaseLocked(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
