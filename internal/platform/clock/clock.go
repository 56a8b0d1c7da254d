// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package clock abstracts wall-clock time so expiry arithmetic can be tested
// deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the production [Clock] backed by [time.Now], in UTC.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually advanced [Clock] for tests. It is safe for concurrent use.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a [Fake] frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t.UTC()}
}

// Now returns the frozen time.
func (fake *Fake) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.now
}

// Advance moves the frozen time forward by d.
func (fake *Fake) Advance(d time.Duration) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.now = fake.now.Add(d)
}
