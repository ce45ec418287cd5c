// Copyright 2016 Aleksandr Demakin. All rights reserved.

package common

import (
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultAttempts is the number of create/open rounds made before giving up.
	DefaultAttempts = 16
	defaultInitial  = time.Millisecond
	defaultMax      = 50 * time.Millisecond
	defaultElapsed  = 2 * time.Second
)

// DefaultRetry returns the backoff policy used by create-or-open loops
// when the caller doesn't provide one.
func DefaultRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultInitial
	b.MaxInterval = defaultMax
	b.MaxElapsedTime = defaultElapsed
	return backoff.WithMaxRetries(b, DefaultAttempts)
}

// OpenOrCreate calls creator(true) to create a new object exclusively.
// If the object already exists, it calls creator(false) to open it.
// If the object disappears between these two calls, another round is made,
// as long as the backoff policy allows it.
// It returns true, if the object was created by this call.
func OpenOrCreate(creator func(create bool) error, policy backoff.BackOff) (bool, error) {
	if policy == nil {
		policy = DefaultRetry()
	}
	var created bool
	op := func() error {
		err := creator(true)
		if err == nil {
			created = true
			return nil
		}
		if !os.IsExist(err) {
			return backoff.Permanent(err)
		}
		if err = creator(false); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	err := backoff.Retry(op, policy)
	return created, err
}

// WaitFor calls cond until it returns true, or an error, or the policy gives up.
// errGiveUp is returned in the latter case.
func WaitFor(cond func() (bool, error), policy backoff.BackOff, errGiveUp error) error {
	if policy == nil {
		policy = DefaultRetry()
	}
	op := func() error {
		ok, err := cond()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errGiveUp
		}
		return nil
	}
	return backoff.Retry(op, policy)
}
