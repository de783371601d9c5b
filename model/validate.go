// Copyright 2026 Flint ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrNoOperations    = errors.New("model has no operations")
	ErrOperandIndex    = errors.New("operand index out of range")
	ErrPoolIndex       = errors.New("pool index out of range")
	ErrBlobBounds      = errors.New("constant data outside operand value block")
	ErrArgumentCount   = errors.New("request argument count mismatch")
	ErrMissingOperands = errors.New("operation has no inputs or outputs")
)

// Validate checks the model's structural integrity: every operand index is
// in range, every embedded constant stays within the operand value block,
// and every operation names at least one input and output. It performs no
// shape inference; per-operation feasibility is the driver's
// SupportedOperations query.
func (m *Model) Validate() error {
	if len(m.Operations) == 0 {
		return ErrNoOperations
	}
	for i, operand := range m.Operands {
		switch operand.Lifetime {
		case ConstantCopy:
			end := uint64(operand.Location.Offset) + uint64(operand.Location.Length)
			if end > uint64(len(m.OperandValues)) {
				return fmt.Errorf("operand %d: %w", i, ErrBlobBounds)
			}
		case ConstantReference:
			if int(operand.Location.PoolIndex) >= len(m.Pools) {
				return fmt.Errorf("operand %d: %w", i, ErrPoolIndex)
			}
		}
	}
	for i, op := range m.Operations {
		if len(op.Inputs) == 0 || len(op.Outputs) == 0 {
			return fmt.Errorf("operation %d (%s): %w", i, op.Type, ErrMissingOperands)
		}
		for _, idx := range op.Inputs {
			if int(idx) >= len(m.Operands) {
				return fmt.Errorf("operation %d (%s) input: %w", i, op.Type, ErrOperandIndex)
			}
		}
		for _, idx := range op.Outputs {
			if int(idx) >= len(m.Operands) {
				return fmt.Errorf("operation %d (%s) output: %w", i, op.Type, ErrOperandIndex)
			}
		}
	}
	for _, idx := range m.InputIndexes {
		if int(idx) >= len(m.Operands) {
			return fmt.Errorf("model input: %w", ErrOperandIndex)
		}
	}
	for _, idx := range m.OutputIndexes {
		if int(idx) >= len(m.Operands) {
			return fmt.Errorf("model output: %w", ErrOperandIndex)
		}
	}
	return nil
}

// ValidateRequest checks a request against the model it will run on: the
// argument lists must match the model's declared inputs and outputs
// one-to-one, and every argument must name a valid request pool. Rejected
// requests never reach the accelerator.
func ValidateRequest(request *Request, m *Model) error {
	if len(request.Inputs) != len(m.InputIndexes) {
		return fmt.Errorf("inputs: want %d, got %d: %w",
			len(m.InputIndexes), len(request.Inputs), ErrArgumentCount)
	}
	if len(request.Outputs) != len(m.OutputIndexes) {
		return fmt.Errorf("outputs: want %d, got %d: %w",
			len(m.OutputIndexes), len(request.Outputs), ErrArgumentCount)
	}
	for i, arg := range request.Inputs {
		if int(arg.Location.PoolIndex) >= len(request.Pools) {
			return fmt.Errorf("input %d: %w", i, ErrPoolIndex)
		}
	}
	for i, arg := range request.Outputs {
		if int(arg.Location.PoolIndex) >= len(request.Pools) {
			return fmt.Errorf("output %d: %w", i, ErrPoolIndex)
		}
	}
	return nil
}
