/*
 * Copyright (C) 2026 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package core

import (
	"errors"
)

// wrappedError is an error with a sentinel (err) and an underlying cause.
// errors.Is matches both, errors.As and Unwrap only reach the cause.
type wrappedError struct {
	err   error
	cause error
}

func (w wrappedError) Error() string {
	return errorString(w.err) + ": " + errorString(w.cause)
}

func (w wrappedError) Is(other error) bool {
	return errors.Is(w.err, other)
}

func (w wrappedError) Unwrap() error {
	return w.cause
}

// WrapError returns err annotated with cause, so that callers can test for the sentinel err with errors.Is
// while the cause remains reachable (unlike fmt.Errorf with a single %w). A nil cause returns err as is.
func WrapError(err error, cause error) error {
	if cause == nil {
		return err
	}
	return wrappedError{
		err:   err,
		cause: cause,
	}
}

func errorString(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
