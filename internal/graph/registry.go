package graph

import "github.com/flintml/flint/model"

// CheckFn validates one operation and sizes its output operands. It must
// not touch the accelerator session: the supported-operations query runs
// every checker before anything is appended to the graph.
type CheckFn func(b *Builder, inputs, outputs []uint32) error

// LowerFn appends the accelerator nodes implementing one operation.
type LowerFn func(b *Builder, inputs, outputs []uint32) error

// Registry resolves the validation and lowering logic per operation. The
// checker is keyed by operation kind alone; lowering additionally
// dispatches on the numeric representation of the operation's first input.
type Registry interface {
	Check(op model.OperationType) (CheckFn, bool)
	Lower(op model.OperationType, operand model.OperandType) (LowerFn, bool)
}
