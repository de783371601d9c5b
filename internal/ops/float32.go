package ops

import (
	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/graph"
	"github.com/flintml/flint/internal/shape"
	"github.com/flintml/flint/model"
)

// Float lowerings. Each appends the node chain for one operation; the
// checkers have already validated arities and sized the outputs, but the
// counts are re-checked because lowering runs on the raw operation list.

func lowerAddF(b *graph.Builder, ins, outs []uint32) error {
	return lowerBinaryF(b, ins, outs, accel.OpAddF)
}

func lowerMulF(b *graph.Builder, ins, outs []uint32) error {
	return lowerBinaryF(b, ins, outs, accel.OpMulF)
}

func lowerBinaryF(b *graph.Builder, ins, outs []uint32, op accel.OpType) error {
	if len(ins) != 3 || len(outs) != 1 {
		return ErrArity
	}
	in1, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	in2, err := b.GetTensor(ins[1])
	if err != nil {
		return err
	}
	act, err := b.GetActivation(ins[2])
	if err != nil {
		return err
	}
	return b.AddFusedFloatOperation(op, accel.PaddingNA, accel.Input{}, act,
		[]accel.Input{in1, in2}, outs)
}

// poolParams extracts the window geometry shared by the pooling forms:
// explicit per-side padding or an implicit scheme.
type poolParams struct {
	pad              accel.PaddingType
	strideW, strideH uint32
	filterW, filterH uint32
	act              model.FusedActivation
}

func poolParamsOf(b *graph.Builder, ins []uint32) (poolParams, error) {
	var params poolParams
	var err error
	if len(ins) == 10 {
		p, err := scalarInt32s(b, ins[1:9])
		if err != nil {
			return params, err
		}
		params.strideW, params.strideH = uint32(p[4]), uint32(p[5])
		params.filterW, params.filterH = uint32(p[6]), uint32(p[7])
		params.pad = paddingFor(shape.ClassifyPadding(params.filterW, params.filterH,
			uint32(p[0]), uint32(p[1]), uint32(p[2]), uint32(p[3])))
	} else {
		p, err := scalarInt32s(b, ins[1:6])
		if err != nil {
			return params, err
		}
		params.pad = paddingFor(shape.PaddingScheme(p[0]))
		params.strideW, params.strideH = uint32(p[1]), uint32(p[2])
		params.filterW, params.filterH = uint32(p[3]), uint32(p[4])
	}
	params.act, err = b.GetActivation(ins[len(ins)-1])
	return params, err
}

func lowerPoolF(op accel.OpType) graph.LowerFn {
	return func(b *graph.Builder, ins, outs []uint32) error {
		if (len(ins) != 10 && len(ins) != 7) || len(outs) != 1 {
			return ErrArity
		}
		input, err := b.GetTensor(ins[0])
		if err != nil {
			return err
		}
		params, err := poolParamsOf(b, ins)
		if err != nil {
			return err
		}
		window, err := b.CreateShape(1, params.filterH, params.filterW, 1)
		if err != nil {
			return err
		}
		stride, err := b.CreateShape(1, params.strideH, params.strideW, 1)
		if err != nil {
			return err
		}
		return b.AddFloatOperationWithActivation(op, params.pad, params.act,
			[]accel.Input{input, window, stride}, outs)
	}
}

// convParams extracts stride and padding for the convolution forms. The
// explicit form recovers the scheme from the per-side values and the
// filter geometry.
type convParams struct {
	pad              accel.PaddingType
	strideW, strideH uint32
	act              model.FusedActivation
}

func convParamsOf(b *graph.Builder, ins []uint32, filterW, filterH uint32, explicit bool) (convParams, error) {
	var params convParams
	var err error
	if explicit {
		p, err := scalarInt32s(b, ins[3:9])
		if err != nil {
			return params, err
		}
		params.strideW, params.strideH = uint32(p[4]), uint32(p[5])
		params.pad = paddingFor(shape.ClassifyPadding(filterW, filterH,
			uint32(p[0]), uint32(p[1]), uint32(p[2]), uint32(p[3])))
	} else {
		p, err := scalarInt32s(b, ins[3:6])
		if err != nil {
			return params, err
		}
		params.pad = paddingFor(shape.PaddingScheme(p[0]))
		params.strideW, params.strideH = uint32(p[1]), uint32(p[2])
	}
	params.act, err = b.GetActivation(ins[len(ins)-1])
	return params, err
}

func lowerConv2DF(b *graph.Builder, ins, outs []uint32) error {
	if (len(ins) != 10 && len(ins) != 7) || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	filter, err := b.CreateConvFilterTensor(ins[1])
	if err != nil {
		return err
	}
	bias, err := b.GetTensor(ins[2])
	if err != nil {
		return err
	}
	filterShape := b.Shape(ins[1])
	params, err := convParamsOf(b, ins,
		filterShape.Dimensions[2], filterShape.Dimensions[1], len(ins) == 10)
	if err != nil {
		return err
	}
	stride, err := b.CreateShape(1, params.strideH, params.strideW, 1)
	if err != nil {
		return err
	}
	return b.AddFusedFloatOperation(accel.OpConv2dF, params.pad, bias, params.act,
		[]accel.Input{input, filter, stride}, outs)
}

func lowerDepthwiseConv2DF(b *graph.Builder, ins, outs []uint32) error {
	if (len(ins) != 11 && len(ins) != 8) || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	bias, err := b.GetTensor(ins[2])
	if err != nil {
		return err
	}
	multIndex := ins[6]
	if len(ins) == 11 {
		multIndex = ins[9]
	}
	depthMultiplier, err := b.GetScalarInt32(multIndex)
	if err != nil {
		return err
	}
	filter, err := b.CreateDepthwiseFilterTensor(ins[1], depthMultiplier)
	if err != nil {
		return err
	}
	filterShape := b.Shape(ins[1])
	params, err := convParamsOf(b, ins,
		filterShape.Dimensions[2], filterShape.Dimensions[1], len(ins) == 11)
	if err != nil {
		return err
	}
	stride, err := b.CreateShape(1, params.strideH, params.strideW, 1)
	if err != nil {
		return err
	}
	return b.AddFusedFloatOperation(accel.OpDepthwiseConv2dF, params.pad, bias, params.act,
		[]accel.Input{input, filter, stride}, outs)
}

func lowerFullyConnectedF(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 4 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	weights, err := b.CreateFullyConnectedWeightTensor(ins[1])
	if err != nil {
		return err
	}
	bias, err := b.GetTensor(ins[2])
	if err != nil {
		return err
	}
	act, err := b.GetActivation(ins[3])
	if err != nil {
		return err
	}
	return b.AddFusedFloatOperation(accel.OpMatMulF, accel.PaddingNA, bias, act,
		[]accel.Input{input, weights}, outs)
}

func lowerConcatenationF(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) < 3 || len(outs) != 1 {
		return ErrArity
	}
	numTensors := len(ins) - 1
	inputs := make([]accel.Input, numTensors+1)
	for i := 0; i < numTensors; i++ {
		in, err := b.GetTensor(ins[i])
		if err != nil {
			return err
		}
		inputs[i+1] = in
	}

	// the accelerator counts axes over the aligned four
	axis, err := b.GetScalarInt32(ins[numTensors])
	if err != nil {
		return err
	}
	rank := len(b.Shape(ins[0]).Dimensions)
	inputs[0], err = b.CreateScalarInt32(axis + int32(4-rank))
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpConcatF, accel.PaddingNA, inputs, outs)
}

func lowerNormalizationF(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 5 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	bias, err := b.GetTensor(ins[2])
	if err != nil {
		return err
	}
	alpha, err := b.GetTensor(ins[3])
	if err != nil {
		return err
	}
	beta, err := b.GetTensor(ins[4])
	if err != nil {
		return err
	}
	radius, err := b.GetScalarInt32(ins[1])
	if err != nil {
		return err
	}
	window, err := b.CreateFilledTensorFloat32(1, 1, 1, uint32(radius*2+1), 1.0)
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpLRNF, accel.PaddingNA,
		[]accel.Input{input, window, bias, alpha, beta}, outs)
}

func lowerLogisticF(b *graph.Builder, ins, outs []uint32) error {
	return lowerUnaryF(b, ins, outs, accel.OpSigmoidF)
}

func lowerTanhF(b *graph.Builder, ins, outs []uint32) error {
	return lowerUnaryF(b, ins, outs, accel.OpTanhF)
}

func lowerReluF(b *graph.Builder, ins, outs []uint32) error {
	return lowerUnaryF(b, ins, outs, accel.OpReluF)
}

func lowerUnaryF(b *graph.Builder, ins, outs []uint32, op accel.OpType) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	return b.AddBasicOperation(op, accel.PaddingNA, []accel.Input{input}, outs)
}

func lowerRelu1F(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	min, err := b.CreateScalarFloat32(-1.0)
	if err != nil {
		return err
	}
	max, err := b.CreateScalarFloat32(1.0)
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpClampF, accel.PaddingNA,
		[]accel.Input{input, min, max}, outs)
}

func lowerRelu6F(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	max, err := b.CreateScalarFloat32(6.0)
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpReluXF, accel.PaddingNA,
		[]accel.Input{input, max}, outs)
}

func lowerReshapeF(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 2 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	newDims, err := b.GetTensor(ins[1])
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpReshape, accel.PaddingNA,
		[]accel.Input{input, newDims}, outs)
}

func lowerResizeBilinearF(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 3 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	width, err := b.GetScalarInt32(ins[1])
	if err != nil {
		return err
	}
	height, err := b.GetScalarInt32(ins[2])
	if err != nil {
		return err
	}
	newDim, err := b.CreateValuesInt32([]int32{height, width})
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpResizeBilinearF, accel.PaddingNA,
		[]accel.Input{input, newDim}, outs)
}

func lowerSoftmaxF(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 2 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	beta, err := b.GetTensor(ins[1])
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpSoftmaxF, accel.PaddingNA,
		[]accel.Input{input, beta}, outs)
}
