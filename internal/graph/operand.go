// Package graph builds and runs the accelerator-side rendition of one
// model: it owns the operand table, lowers the generic operation list into
// accelerator nodes, and adapts inference requests onto the compiled
// graph.
package graph

import (
	"errors"
	"fmt"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/pool"
	"github.com/flintml/flint/internal/shape"
	"github.com/flintml/flint/model"
)

// Graph construction and execution errors.
var (
	ErrSessionInit       = errors.New("accelerator session init failed")
	ErrNodeRejected      = errors.New("accelerator rejected node")
	ErrHandleSet         = errors.New("operand tensor handle already assigned")
	ErrTensorUnset       = errors.New("operand tensor handle not assigned")
	ErrInvalidInput      = errors.New("operation input reference is unset")
	ErrUnsupported       = errors.New("unsupported operation")
	ErrNotScalar         = errors.New("operand is not a readable scalar")
	ErrNoBuffer          = errors.New("operand has no resolved buffer")
	ErrUnknownActivation = errors.New("unknown fused activation")
	ErrExecute           = errors.New("accelerator execution failed")
	ErrPrepareGraph      = errors.New("accelerator graph prepare failed")
)

// OperandInfo is one resolved entry of the operand table: the model
// operand's metadata plus its backing buffer and the lazily created
// accelerator-side tensor handles.
type OperandInfo struct {
	Type       model.OperandType
	Dimensions []uint32
	Scale      float32
	ZeroPoint  int32
	Lifetime   model.Lifetime
	Buffer     []byte
	Length     uint32

	// Accelerator-side handles. The zero Input means unset; once set a
	// handle is never overwritten (single-producer invariant).
	tensor accel.Input
	min    accel.Input
	max    accel.Input
}

var unsetInput = accel.Input{}

// resolveOperands builds the operand table, resolving every constant
// operand's buffer from the embedded value block or a mapped pool.
// Temporary and model I/O operands stay unresolved until lowering or
// request binding.
func resolveOperands(m *model.Model, pools []*pool.RunTimePool) ([]OperandInfo, error) {
	operands := make([]OperandInfo, len(m.Operands))
	for i, op := range m.Operands {
		info := OperandInfo{
			Type:       op.Type,
			Dimensions: append([]uint32(nil), op.Dimensions...),
			Scale:      op.Scale,
			ZeroPoint:  op.ZeroPoint,
			Lifetime:   op.Lifetime,
			Length:     op.Location.Length,
		}
		switch op.Lifetime {
		case model.ConstantCopy:
			end := uint64(op.Location.Offset) + uint64(op.Location.Length)
			if end > uint64(len(m.OperandValues)) {
				return nil, fmt.Errorf("operand %d: %w", i, model.ErrBlobBounds)
			}
			info.Buffer = m.OperandValues[op.Location.Offset:end:end]
		case model.ConstantReference:
			if int(op.Location.PoolIndex) >= len(pools) {
				return nil, fmt.Errorf("operand %d: %w", i, model.ErrPoolIndex)
			}
			buf, err := pools[op.Location.PoolIndex].DataAt(op.Location.Offset, op.Location.Length)
			if err != nil {
				return nil, fmt.Errorf("operand %d: %w", i, err)
			}
			info.Buffer = buf
		}
		// a constant's bytes must cover its declared shape; the filter and
		// weight transposes index the buffer by the dimensions
		if info.Buffer != nil {
			need := shape.Shape{Type: op.Type, Dimensions: op.Dimensions}.ByteSize()
			if uint32(len(info.Buffer)) < need {
				return nil, fmt.Errorf("operand %d: %d bytes for a %d-byte shape: %w",
					i, len(info.Buffer), need, model.ErrBlobBounds)
			}
		}
		operands[i] = info
	}
	return operands, nil
}

// Shape returns the structural description of an operand.
func (b *Builder) Shape(index uint32) shape.Shape {
	op := &b.operands[index]
	return shape.Shape{
		Type:       op.Type,
		Dimensions: op.Dimensions,
		Scale:      op.Scale,
		Offset:     op.ZeroPoint,
	}
}

// SetShape pins an operand's dimensions, normally to a freshly inferred
// output shape. It fails once the operand has been wired into the graph:
// resizing a produced tensor would desynchronize the node's declared
// output spec.
func (b *Builder) SetShape(index uint32, dims []uint32) error {
	op := &b.operands[index]
	if op.tensor != unsetInput {
		return fmt.Errorf("operand %d: %w", index, ErrHandleSet)
	}
	op.Dimensions = append([]uint32(nil), dims...)
	return nil
}

// IsConstant reports whether the operand's value is fixed at model
// construction time.
func (b *Builder) IsConstant(index uint32) bool {
	return b.operands[index].Lifetime.IsConstant()
}

// OperandCount returns the size of the operand table.
func (b *Builder) OperandCount() int {
	return len(b.operands)
}
