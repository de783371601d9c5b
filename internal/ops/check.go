package ops

import (
	"fmt"

	"github.com/flintml/flint/internal/graph"
	"github.com/flintml/flint/internal/shape"
)

// The check functions validate one operation's operand counts and
// parameters, infer the output shape, and pin it on the output operand.
// They never touch the accelerator session.

func checkAddMul(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 3 || len(outs) != 1 {
		return ErrArity
	}
	dims, err := shape.AddMulPrepare(b.Shape(ins[0]), b.Shape(ins[1]))
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}

func checkPool(b *graph.Builder, ins, outs []uint32) error {
	if (len(ins) != 10 && len(ins) != 7) || len(outs) != 1 {
		return ErrArity
	}
	in := b.Shape(ins[0])
	if len(in.Dimensions) != 4 {
		return fmt.Errorf("pool wants rank-4 input: %w", shape.ErrRank)
	}

	var padLeft, padRight, padTop, padBottom uint32
	var strideW, strideH, filterW, filterH uint32
	if len(ins) == 10 {
		p, err := scalarInt32s(b, ins[1:9])
		if err != nil {
			return err
		}
		padLeft, padRight = uint32(p[0]), uint32(p[1])
		padTop, padBottom = uint32(p[2]), uint32(p[3])
		strideW, strideH = uint32(p[4]), uint32(p[5])
		filterW, filterH = uint32(p[6]), uint32(p[7])
		if shape.ClassifyPadding(filterW, filterH, padLeft, padRight, padTop, padBottom) == shape.PaddingUnknown {
			return shape.ErrUnknownPadding
		}
	} else {
		p, err := scalarInt32s(b, ins[1:6])
		if err != nil {
			return err
		}
		scheme := shape.PaddingScheme(p[0])
		strideW, strideH = uint32(p[1]), uint32(p[2])
		filterW, filterH = uint32(p[3]), uint32(p[4])
		if padLeft, padRight, err = shape.ExplicitPadding(in.Dimensions[2], strideW, filterW, scheme); err != nil {
			return err
		}
		if padTop, padBottom, err = shape.ExplicitPadding(in.Dimensions[1], strideH, filterH, scheme); err != nil {
			return err
		}
	}

	dims, err := shape.PoolPrepare(in, padLeft, padRight, padTop, padBottom,
		strideW, strideH, filterW, filterH)
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}

func checkConcatenation(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) < 3 || len(outs) != 1 {
		return ErrArity
	}
	numTensors := len(ins) - 1
	axis, err := b.GetScalarInt32(ins[numTensors])
	if err != nil {
		return err
	}
	inShapes := make([]shape.Shape, numTensors)
	for i := 0; i < numTensors; i++ {
		inShapes[i] = b.Shape(ins[i])
	}
	dims, err := shape.ConcatenationPrepare(inShapes, axis)
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}

func checkConv2D(b *graph.Builder, ins, outs []uint32) error {
	if (len(ins) != 10 && len(ins) != 7) || len(outs) != 1 {
		return ErrArity
	}
	input := b.Shape(ins[0])
	filter := b.Shape(ins[1])
	bias := b.Shape(ins[2])
	if len(input.Dimensions) != 4 || len(filter.Dimensions) != 4 {
		return fmt.Errorf("conv wants rank-4 input and filter: %w", shape.ErrRank)
	}

	var padLeft, padRight, padTop, padBottom, strideW, strideH uint32
	if len(ins) == 10 {
		p, err := scalarInt32s(b, ins[3:9])
		if err != nil {
			return err
		}
		padLeft, padRight = uint32(p[0]), uint32(p[1])
		padTop, padBottom = uint32(p[2]), uint32(p[3])
		strideW, strideH = uint32(p[4]), uint32(p[5])
		if shape.ClassifyPadding(filter.Dimensions[2], filter.Dimensions[1],
			padLeft, padRight, padTop, padBottom) == shape.PaddingUnknown {
			return shape.ErrUnknownPadding
		}
	} else {
		p, err := scalarInt32s(b, ins[3:6])
		if err != nil {
			return err
		}
		scheme := shape.PaddingScheme(p[0])
		strideW, strideH = uint32(p[1]), uint32(p[2])
		if padLeft, padRight, err = shape.ExplicitPadding(input.Dimensions[2], strideW, filter.Dimensions[2], scheme); err != nil {
			return err
		}
		if padTop, padBottom, err = shape.ExplicitPadding(input.Dimensions[1], strideH, filter.Dimensions[1], scheme); err != nil {
			return err
		}
	}

	dims, err := shape.ConvPrepare(input, filter, bias,
		padLeft, padRight, padTop, padBottom, strideW, strideH)
	if err != nil {
		return err
	}
	if err := b.SetShape(outs[0], dims); err != nil {
		return err
	}
	if !b.IsConstant(ins[1]) {
		return fmt.Errorf("conv filter: %w", ErrNonConstData)
	}
	return nil
}

func checkDepthwiseConv2D(b *graph.Builder, ins, outs []uint32) error {
	if (len(ins) != 11 && len(ins) != 8) || len(outs) != 1 {
		return ErrArity
	}
	input := b.Shape(ins[0])
	filter := b.Shape(ins[1])
	bias := b.Shape(ins[2])
	if len(input.Dimensions) != 4 || len(filter.Dimensions) != 4 {
		return fmt.Errorf("depthwise conv wants rank-4 input and filter: %w", shape.ErrRank)
	}

	var padLeft, padRight, padTop, padBottom, strideW, strideH uint32
	if len(ins) == 11 {
		p, err := scalarInt32s(b, ins[3:9])
		if err != nil {
			return err
		}
		padLeft, padRight = uint32(p[0]), uint32(p[1])
		padTop, padBottom = uint32(p[2]), uint32(p[3])
		strideW, strideH = uint32(p[4]), uint32(p[5])
		if shape.ClassifyPadding(filter.Dimensions[2], filter.Dimensions[1],
			padLeft, padRight, padTop, padBottom) == shape.PaddingUnknown {
			return shape.ErrUnknownPadding
		}
	} else {
		p, err := scalarInt32s(b, ins[3:6])
		if err != nil {
			return err
		}
		scheme := shape.PaddingScheme(p[0])
		strideW, strideH = uint32(p[1]), uint32(p[2])
		if padLeft, padRight, err = shape.ExplicitPadding(input.Dimensions[2], strideW, filter.Dimensions[2], scheme); err != nil {
			return err
		}
		if padTop, padBottom, err = shape.ExplicitPadding(input.Dimensions[1], strideH, filter.Dimensions[1], scheme); err != nil {
			return err
		}
	}

	dims, err := shape.DepthwiseConvPrepare(input, filter, bias,
		padLeft, padRight, padTop, padBottom, strideW, strideH)
	if err != nil {
		return err
	}
	if err := b.SetShape(outs[0], dims); err != nil {
		return err
	}
	if !b.IsConstant(ins[1]) {
		return fmt.Errorf("depthwise filter: %w", ErrNonConstData)
	}
	return nil
}

func checkDequantize(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	dims, err := shape.DequantizePrepare(b.Shape(ins[0]))
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}

func checkFullyConnected(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 4 || len(outs) != 1 {
		return ErrArity
	}
	dims, err := shape.FullyConnectedPrepare(b.Shape(ins[0]), b.Shape(ins[1]), b.Shape(ins[2]))
	if err != nil {
		return err
	}
	if err := b.SetShape(outs[0], dims); err != nil {
		return err
	}
	if !b.IsConstant(ins[1]) {
		return fmt.Errorf("fully connected weights: %w", ErrNonConstData)
	}
	return nil
}

func checkNormalization(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 5 || len(outs) != 1 {
		return ErrArity
	}
	dims, err := shape.NormalizationPrepare(b.Shape(ins[0]))
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}

func checkUnary(b *graph.Builder, ins, outs []uint32) error {
	return checkActivationN(b, ins, outs, 1)
}

func checkSoftmax(b *graph.Builder, ins, outs []uint32) error {
	return checkActivationN(b, ins, outs, 2)
}

func checkActivationN(b *graph.Builder, ins, outs []uint32, numInputs int) error {
	if len(ins) != numInputs || len(outs) != 1 {
		return ErrArity
	}
	dims, err := shape.ActivationPrepare(b.Shape(ins[0]))
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}

func checkReshape(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 2 || len(outs) != 1 {
		return ErrArity
	}
	target, err := b.GetInt32Values(ins[1])
	if err != nil {
		return err
	}
	dims, err := shape.ReshapePrepare(b.Shape(ins[0]), target)
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}

func checkResizeBilinear(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 3 || len(outs) != 1 {
		return ErrArity
	}
	width, err := b.GetScalarInt32(ins[1])
	if err != nil {
		return err
	}
	height, err := b.GetScalarInt32(ins[2])
	if err != nil {
		return err
	}
	dims, err := shape.ResizeBilinearPrepare(b.Shape(ins[0]), width, height)
	if err != nil {
		return err
	}
	return b.SetShape(outs[0], dims)
}
