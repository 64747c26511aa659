// SPDX-License-Identifier: MIT

package parameters

import "errors"

var (
	// ErrInvalidParam reports a parameter without a prior or without a value.
	ErrInvalidParam = errors.New("parameters: parameter needs a prior and a value")

	// ErrUnknownParam reports a lookup of a name that is not in the group.
	ErrUnknownParam = errors.New("parameters: unknown parameter")
)
