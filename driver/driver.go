// Copyright 2026 Flint ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package driver is the host-side entry point to the accelerator: a Device
// answers capability and support queries and prepares models, and a
// PreparedModel runs inference requests against the lowered graph.
//
// The package collapses the internal error taxonomy to a small ErrorStatus
// at its boundary, mirroring what a service endpoint would report, while
// the underlying error remains available for logging and tests.
package driver

import (
	"errors"

	"github.com/flintml/flint/model"
)

// ErrorStatus is the coarse result code reported at the driver boundary.
type ErrorStatus int32

// Driver result codes.
const (
	StatusNone ErrorStatus = iota
	StatusDeviceUnavailable
	StatusGeneralFailure
	StatusOutputInsufficientSize
	StatusInvalidArgument
)

var statusNames = [...]string{
	"NONE",
	"DEVICE_UNAVAILABLE",
	"GENERAL_FAILURE",
	"OUTPUT_INSUFFICIENT_SIZE",
	"INVALID_ARGUMENT",
}

// String returns the canonical status name.
func (s ErrorStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "UNKNOWN"
	}
	return statusNames[s]
}

// StatusOf maps an internal error to its boundary status. Structural
// model and request problems become InvalidArgument; anything else that
// went wrong inside the accelerator path is a GeneralFailure.
func StatusOf(err error) ErrorStatus {
	switch {
	case err == nil:
		return StatusNone
	case errors.Is(err, model.ErrNoOperations),
		errors.Is(err, model.ErrOperandIndex),
		errors.Is(err, model.ErrPoolIndex),
		errors.Is(err, model.ErrBlobBounds),
		errors.Is(err, model.ErrArgumentCount),
		errors.Is(err, model.ErrMissingOperands):
		return StatusInvalidArgument
	default:
		return StatusGeneralFailure
	}
}
