package graph

import (
	"fmt"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/pool"
	"github.com/flintml/flint/internal/shape"
	"github.com/flintml/flint/model"
)

// Execute runs one inference request, compiling the graph on first use.
// The caller maps the request pools and keeps them alive until Execute
// returns; output regions are written in place and flushed to any
// file-backed pool.
func (b *Builder) Execute(request *model.Request, pools []*pool.RunTimePool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.compiled {
		if err := b.compileLocked(); err != nil {
			return err
		}
	}

	if len(request.Inputs) != len(b.inputs) || len(request.Outputs) != len(b.outputs) {
		return model.ErrArgumentCount
	}

	inputs := make([]accel.TensorDef, len(request.Inputs))
	for i, arg := range request.Inputs {
		def, err := b.bindArgument(b.inputs[i], arg, pools)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		inputs[i] = def
	}
	outputs := make([]accel.TensorDef, len(request.Outputs))
	for i, arg := range request.Outputs {
		def, err := b.bindArgument(b.outputs[i], arg, pools)
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		outputs[i] = def
	}

	if status := b.ctrl.Execute(b.graphID, inputs, outputs); status != 0 {
		return fmt.Errorf("status %d: %w", status, ErrExecute)
	}
	if cycles, status := b.ctrl.GetLastExecutionCycles(b.graphID); status == 0 {
		b.log.Debug("execution complete", "cycles", cycles)
	}

	for _, p := range pools {
		if err := p.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// bindArgument points a model input or output operand at its region of a
// request pool for this execution. Request-supplied dimensions override
// the operand's declared dimensions; the byte length is recomputed from
// the effective shape.
func (b *Builder) bindArgument(index uint32, arg model.RequestArgument, pools []*pool.RunTimePool) (accel.TensorDef, error) {
	op := &b.operands[index]
	if int(arg.Location.PoolIndex) >= len(pools) {
		return accel.TensorDef{}, model.ErrPoolIndex
	}
	if len(arg.Dimensions) > 0 {
		op.Dimensions = append([]uint32(nil), arg.Dimensions...)
	}
	size := shape.Shape{Type: op.Type, Dimensions: op.Dimensions}.ByteSize()
	buf, err := pools[arg.Location.PoolIndex].DataAt(arg.Location.Offset, size)
	if err != nil {
		return accel.TensorDef{}, err
	}
	op.Buffer = buf
	op.Length = size

	dims, err := shape.AlignedDimensions(op.Dimensions, 4)
	if err != nil {
		return accel.TensorDef{}, err
	}
	return accel.TensorDef{
		Batches: dims[0],
		Height:  dims[1],
		Width:   dims[2],
		Depth:   dims[3],
		Data:    buf,
	}, nil
}
