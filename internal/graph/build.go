package graph

import (
	"fmt"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/shape"
)

// SupportedOperations reports, operation by operation, whether the model
// can be lowered. The query runs only the pure checkers and registry
// lookups; nothing is appended to the accelerator session, so it can be
// repeated freely.
func (b *Builder) SupportedOperations() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.supportedLocked()
}

func (b *Builder) supportedLocked() []bool {
	supported := make([]bool, len(b.operations))
	for i, operation := range b.operations {
		if len(operation.Inputs) == 0 {
			continue
		}
		// an operation the checker accepts still needs a lowering for
		// its input representation
		if _, ok := b.registry.Lower(operation.Type, b.operands[operation.Inputs[0]].Type); !ok {
			continue
		}
		check, ok := b.registry.Check(operation.Type)
		if !ok {
			continue
		}
		if err := check(b, operation.Inputs, operation.Outputs); err != nil {
			b.log.Debug("operation unsupported",
				"index", i, "op", operation.Type.String(), "err", err)
			continue
		}
		supported[i] = true
	}
	return supported
}

func (b *Builder) verifyOperandsLocked() error {
	for i, op := range b.operands {
		for _, dim := range op.Dimensions {
			if dim == 0 {
				return fmt.Errorf("operand %d: %w", i, shape.ErrZeroDimension)
			}
		}
	}
	return nil
}

// addInputsLocked appends the single entry node feeding every model input.
func (b *Builder) addInputsLocked() error {
	outs := make([]accel.Output, 0, len(b.inputs))
	for _, index := range b.inputs {
		op := &b.operands[index]
		out, err := makeOutput(op.Dimensions, op.Type.Size())
		if err != nil {
			return fmt.Errorf("input operand %d: %w", index, err)
		}
		outs = append(outs, out)
	}
	node, err := b.appendOperation(accel.OpINPUT, accel.PaddingNA, nil, outs)
	if err != nil {
		return err
	}
	for i, index := range b.inputs {
		b.operands[index].tensor = accel.Input{SrcID: node, OutputIdx: uint32(i)}
	}
	return nil
}

func (b *Builder) addOperationsLocked() error {
	for i, operation := range b.operations {
		if len(operation.Inputs) == 0 {
			return fmt.Errorf("operation %d has no inputs: %w", i, ErrUnsupported)
		}
		operandType := b.operands[operation.Inputs[0]].Type
		lower, ok := b.registry.Lower(operation.Type, operandType)
		if !ok {
			return fmt.Errorf("operation %d (%s on %s): %w",
				i, operation.Type, operandType, ErrUnsupported)
		}
		if err := lower(b, operation.Inputs, operation.Outputs); err != nil {
			return fmt.Errorf("operation %d (%s): %w", i, operation.Type, err)
		}
	}
	return nil
}

// addOutputsLocked appends the single exit node draining every model
// output.
func (b *Builder) addOutputsLocked() error {
	ins := make([]accel.Input, len(b.outputs))
	for i, index := range b.outputs {
		tensor := b.operands[index].tensor
		if tensor == unsetInput {
			return fmt.Errorf("output operand %d: %w", index, ErrTensorUnset)
		}
		ins[i] = tensor
	}
	_, err := b.appendOperation(accel.OpOUTPUT, accel.PaddingNA, ins, nil)
	return err
}

// resetLocked abandons everything appended to the session and opens a
// fresh one so a later compile starts clean.
func (b *Builder) resetLocked() error {
	b.compiled = false
	b.nodeCount = 0
	for i := range b.operands {
		b.operands[i].tensor = unsetInput
		b.operands[i].min = unsetInput
		b.operands[i].max = unsetInput
	}
	if b.graphID != 0 {
		b.ctrl.Teardown(b.graphID)
		b.graphID = 0
	}
	id := b.ctrl.Init()
	if id == 0 {
		return ErrSessionInit
	}
	b.graphID = id
	b.ctrl.SetDebugLevel(id, debugLevel)
	return nil
}

// Compile lowers the whole model and prepares the session for execution.
// It is idempotent; Execute calls it on first use. Any failure resets the
// session so a later attempt starts from scratch.
func (b *Builder) Compile() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.compileLocked()
}

func (b *Builder) compileLocked() error {
	if b.compiled {
		return nil
	}
	for i, ok := range b.supportedLocked() {
		if !ok {
			return fmt.Errorf("operation %d (%s): %w", i, b.operations[i].Type, ErrUnsupported)
		}
	}
	if err := b.verifyOperandsLocked(); err != nil {
		return err
	}
	if err := b.buildLocked(); err != nil {
		if resetErr := b.resetLocked(); resetErr != nil {
			b.log.Error("session reset failed", "err", resetErr)
		}
		return err
	}
	if status := b.ctrl.Prepare(b.graphID); status != 0 {
		err := fmt.Errorf("prepare status %d: %w", status, ErrPrepareGraph)
		if session, logStatus := b.ctrl.GetLog(b.graphID); logStatus == 0 && session != "" {
			b.log.Debug("session log after failed prepare", "log", session)
		}
		if resetErr := b.resetLocked(); resetErr != nil {
			b.log.Error("session reset failed", "err", resetErr)
		}
		return err
	}
	b.compiled = true
	b.log.Info("graph compiled", "nodes", b.nodeCount)
	if layout, status := b.ctrl.GetDebugLog(b.graphID); status == 0 {
		b.log.Debug("graph layout", "layout", layout)
	}
	return nil
}

func (b *Builder) buildLocked() error {
	if err := b.addInputsLocked(); err != nil {
		return err
	}
	if err := b.addOperationsLocked(); err != nil {
		return err
	}
	return b.addOutputsLocked()
}
