package graph

import (
	"fmt"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/shape"
	"github.com/flintml/flint/model"
)

// makeOutput builds the descriptor of one produced tensor. The accelerator
// wants exactly four axes with leading 1s.
func makeOutput(dims []uint32, elementSize uint32) (accel.Output, error) {
	aligned, err := shape.AlignedDimensions(dims, 4)
	if err != nil {
		return accel.Output{}, err
	}
	out := accel.Output{Rank: 4, ElementSize: elementSize}
	copy(out.MaxSizes[:], aligned)
	return out, nil
}

func scalarFloatOutput() accel.Output {
	out := accel.Output{Rank: 4, ElementSize: 4}
	out.MaxSizes = [accel.MaxRank]uint32{1, 1, 1, 1}
	return out
}

// makeOutputs builds descriptors for the listed operands. A quantized
// tensor is followed by the two float scalars the accelerator produces for
// its value range.
func (b *Builder) makeOutputs(operands []uint32) ([]accel.Output, error) {
	outs := make([]accel.Output, 0, len(operands))
	for _, index := range operands {
		op := &b.operands[index]
		out, err := makeOutput(op.Dimensions, op.Type.Size())
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", index, err)
		}
		outs = append(outs, out)
		if op.Type == model.TensorQuant8Asymm {
			outs = append(outs, scalarFloatOutput(), scalarFloatOutput())
		}
	}
	return outs, nil
}

func (b *Builder) appendOperation(op accel.OpType, pad accel.PaddingType,
	inputs []accel.Input, outputs []accel.Output) (uint32, error) {
	for i, in := range inputs {
		if in == unsetInput {
			return 0, fmt.Errorf("%s input %d: %w", op, i, ErrInvalidInput)
		}
	}
	node := b.nextNode()
	if status := b.ctrl.AppendNode(b.graphID, node, op, pad, inputs, outputs); status != 0 {
		return 0, fmt.Errorf("%s node %d: %w", op, node, ErrNodeRejected)
	}
	return node, nil
}

// registerOutputs records which node slots now produce the listed
// operands. A quantized operand also claims the trailing min and max
// slots.
func (b *Builder) registerOutputs(operands []uint32, node uint32) error {
	slot := uint32(0)
	for _, index := range operands {
		op := &b.operands[index]
		if op.tensor != unsetInput {
			return fmt.Errorf("operand %d: %w", index, ErrHandleSet)
		}
		op.tensor = accel.Input{SrcID: node, OutputIdx: slot}
		slot++
		if op.Type == model.TensorQuant8Asymm {
			op.min = accel.Input{SrcID: node, OutputIdx: slot}
			slot++
			op.max = accel.Input{SrcID: node, OutputIdx: slot}
			slot++
		}
	}
	return nil
}

func floatActivationOp(act model.FusedActivation) (accel.OpType, error) {
	switch act {
	case model.ActivationNone:
		return accel.OpNop, nil
	case model.ActivationRelu:
		return accel.OpReluF, nil
	case model.ActivationRelu1:
		return accel.OpClampF, nil
	case model.ActivationRelu6:
		return accel.OpReluXF, nil
	}
	return 0, fmt.Errorf("activation %d: %w", act, ErrUnknownActivation)
}

func quantActivationOp(act model.FusedActivation) (accel.OpType, error) {
	switch act {
	case model.ActivationNone:
		return accel.OpNop, nil
	case model.ActivationRelu:
		return accel.OpQuantizedRelu8, nil
	case model.ActivationRelu1:
		return accel.OpQuantizedClamp8, nil
	case model.ActivationRelu6:
		return accel.OpQuantizedReluX8, nil
	}
	return 0, fmt.Errorf("activation %d: %w", act, ErrUnknownActivation)
}

// activationArgs creates the extra constant inputs an activation node
// takes beyond the data it clamps.
func (b *Builder) activationArgs(op accel.OpType) ([]accel.Input, error) {
	switch op {
	case accel.OpNop, accel.OpReluF, accel.OpQuantizedRelu8:
		return nil, nil
	case accel.OpReluXF, accel.OpQuantizedReluX8:
		max, err := b.CreateScalarFloat32(6.0)
		if err != nil {
			return nil, err
		}
		return []accel.Input{max}, nil
	case accel.OpClampF, accel.OpQuantizedClamp8:
		min, err := b.CreateScalarFloat32(-1.0)
		if err != nil {
			return nil, err
		}
		max, err := b.CreateScalarFloat32(1.0)
		if err != nil {
			return nil, err
		}
		return []accel.Input{min, max}, nil
	}
	return nil, fmt.Errorf("%s: %w", op, ErrUnknownActivation)
}

// AddBasicOperation lowers one operation to a single node.
func (b *Builder) AddBasicOperation(op accel.OpType, pad accel.PaddingType,
	inputs []accel.Input, outputs []uint32) error {
	outs, err := b.makeOutputs(outputs)
	if err != nil {
		return err
	}
	node, err := b.appendOperation(op, pad, inputs, outs)
	if err != nil {
		return err
	}
	return b.registerOutputs(outputs, node)
}

// AddFloatOperationWithActivation lowers a float operation and chains the
// fused activation behind it. A pass-through activation adds no node.
func (b *Builder) AddFloatOperationWithActivation(op accel.OpType, pad accel.PaddingType,
	act model.FusedActivation, inputs []accel.Input, outputs []uint32) error {
	actOp, err := floatActivationOp(act)
	if err != nil {
		return err
	}
	outs, err := b.makeOutputs(outputs)
	if err != nil {
		return err
	}
	node, err := b.appendOperation(op, pad, inputs, outs)
	if err != nil {
		return err
	}
	if actOp != accel.OpNop {
		args, err := b.activationArgs(actOp)
		if err != nil {
			return err
		}
		in := append([]accel.Input{{SrcID: node}}, args...)
		node, err = b.appendOperation(actOp, accel.PaddingNA, in, outs)
		if err != nil {
			return err
		}
	}
	return b.registerOutputs(outputs, node)
}

// AddQuant8OperationWithActivation lowers a quantized operation that
// produces 8-bit data and its value range directly, chaining the fused
// activation behind it.
func (b *Builder) AddQuant8OperationWithActivation(op accel.OpType, pad accel.PaddingType,
	act model.FusedActivation, inputs []accel.Input, outputs []uint32) error {
	actOp, err := quantActivationOp(act)
	if err != nil {
		return err
	}
	outs, err := b.makeOutputs(outputs)
	if err != nil {
		return err
	}
	node, err := b.appendOperation(op, pad, inputs, outs)
	if err != nil {
		return err
	}
	if actOp != accel.OpNop {
		args, err := b.activationArgs(actOp)
		if err != nil {
			return err
		}
		in := append([]accel.Input{
			{SrcID: node, OutputIdx: 0},
			{SrcID: node, OutputIdx: 1},
			{SrcID: node, OutputIdx: 2},
		}, args...)
		node, err = b.appendOperation(actOp, accel.PaddingNA, in, outs)
		if err != nil {
			return err
		}
	}
	return b.registerOutputs(outputs, node)
}

// AddFusedFloatOperation lowers a float operation followed by an optional
// bias addition and the fused activation. The zero bias skips the bias-add
// node.
func (b *Builder) AddFusedFloatOperation(op accel.OpType, pad accel.PaddingType,
	bias accel.Input, act model.FusedActivation, inputs []accel.Input, outputs []uint32) error {
	if len(outputs) != 1 {
		return fmt.Errorf("fused float lowering wants 1 output, got %d", len(outputs))
	}
	actOp, err := floatActivationOp(act)
	if err != nil {
		return err
	}
	outs, err := b.makeOutputs(outputs)
	if err != nil {
		return err
	}
	node, err := b.appendOperation(op, pad, inputs, outs)
	if err != nil {
		return err
	}
	if bias != unsetInput {
		node, err = b.appendOperation(accel.OpBiasAddF, accel.PaddingNA,
			[]accel.Input{{SrcID: node}, bias}, outs)
		if err != nil {
			return err
		}
	}
	if actOp != accel.OpNop {
		args, err := b.activationArgs(actOp)
		if err != nil {
			return err
		}
		in := append([]accel.Input{{SrcID: node}}, args...)
		node, err = b.appendOperation(actOp, accel.PaddingNA, in, outs)
		if err != nil {
			return err
		}
	}
	return b.registerOutputs(outputs, node)
}

// AddFusedQuant8Operation lowers a quantized operation that produces
// 32-bit intermediates: base node, optional bias addition, requantization
// into the output operand's declared range, then the fused activation.
func (b *Builder) AddFusedQuant8Operation(op accel.OpType, pad accel.PaddingType,
	bias accel.Input, act model.FusedActivation, inputs []accel.Input, outputs []uint32) error {
	if len(outputs) != 1 {
		return fmt.Errorf("fused quant8 lowering wants 1 output, got %d", len(outputs))
	}
	actOp, err := quantActivationOp(act)
	if err != nil {
		return err
	}
	out := &b.operands[outputs[0]]
	tensorOut8, err := makeOutput(out.Dimensions, 1)
	if err != nil {
		return err
	}
	tensorOut32, err := makeOutput(out.Dimensions, 4)
	if err != nil {
		return err
	}
	scalar := scalarFloatOutput()
	out8 := []accel.Output{tensorOut8, scalar, scalar}
	out32 := []accel.Output{tensorOut32, scalar, scalar}

	node, err := b.appendOperation(op, pad, inputs, out32)
	if err != nil {
		return err
	}
	oldMin := accel.Input{SrcID: node, OutputIdx: 1}
	oldMax := accel.Input{SrcID: node, OutputIdx: 2}

	if bias != unsetInput {
		node, err = b.appendOperation(accel.OpAddInt32, accel.PaddingNA,
			[]accel.Input{{SrcID: node}, bias}, []accel.Output{tensorOut32})
		if err != nil {
			return err
		}
	}

	newMin, err := b.GetQuantizationMin(outputs[0])
	if err != nil {
		return err
	}
	newMax, err := b.GetQuantizationMax(outputs[0])
	if err != nil {
		return err
	}
	node, err = b.appendOperation(accel.OpRequantize32to8, accel.PaddingNA,
		[]accel.Input{{SrcID: node}, oldMin, oldMax, newMin, newMax}, out8)
	if err != nil {
		return err
	}

	if actOp != accel.OpNop {
		args, err := b.activationArgs(actOp)
		if err != nil {
			return err
		}
		in := append([]accel.Input{
			{SrcID: node, OutputIdx: 0},
			{SrcID: node, OutputIdx: 1},
			{SrcID: node, OutputIdx: 2},
		}, args...)
		node, err = b.appendOperation(actOp, accel.PaddingNA, in, out8)
		if err != nil {
			return err
		}
	}
	return b.registerOutputs(outputs, node)
}
