package ops

import (
	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/graph"
)

// Quantized lowerings. Operations whose accelerator form produces 32-bit
// intermediates go through the fused requantize chain; the rest consume
// and produce 8-bit data with explicit range inputs.

func lowerAddQ(b *graph.Builder, ins, outs []uint32) error {
	return lowerBinaryQ(b, ins, outs, accel.OpQuantizedAdd8p8to32)
}

func lowerMulQ(b *graph.Builder, ins, outs []uint32) error {
	return lowerBinaryQ(b, ins, outs, accel.OpQuantizedMul8x8to32)
}

func lowerBinaryQ(b *graph.Builder, ins, outs []uint32, op accel.OpType) error {
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
	in1Min, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	in1Max, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	in2Min, err := b.GetQuantizationMin(ins[1])
	if err != nil {
		return err
	}
	in2Max, err := b.GetQuantizationMax(ins[1])
	if err != nil {
		return err
	}
	return b.AddFusedQuant8Operation(op, accel.PaddingNA, accel.Input{}, act,
		[]accel.Input{in1, in1Min, in1Max, in2, in2Min, in2Max}, outs)
}

func lowerPoolQ(op accel.OpType) graph.LowerFn {
	return func(b *graph.Builder, ins, outs []uint32) error {
		if (len(ins) != 10 && len(ins) != 7) || len(outs) != 1 {
			return ErrArity
		}
		input, err := b.GetTensor(ins[0])
		if err != nil {
			return err
		}
		inMin, err := b.GetQuantizationMin(ins[0])
		if err != nil {
			return err
		}
		inMax, err := b.GetQuantizationMax(ins[0])
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
		return b.AddQuant8OperationWithActivation(op, params.pad, params.act,
			[]accel.Input{input, inMin, inMax, window, stride}, outs)
	}
}

func lowerConcatenationQ(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) < 3 || len(outs) != 1 {
		return ErrArity
	}
	numTensors := len(ins) - 1
	inputs := make([]accel.Input, numTensors*3+1)
	for i := 0; i < numTensors; i++ {
		in, err := b.GetTensor(ins[i])
		if err != nil {
			return err
		}
		min, err := b.GetQuantizationMin(ins[i])
		if err != nil {
			return err
		}
		max, err := b.GetQuantizationMax(ins[i])
		if err != nil {
			return err
		}
		inputs[i+1] = in
		inputs[i+1+numTensors] = min
		inputs[i+1+numTensors*2] = max
	}

	axis, err := b.GetScalarInt32(ins[numTensors])
	if err != nil {
		return err
	}
	rank := len(b.Shape(ins[0]).Dimensions)
	inputs[0], err = b.CreateScalarInt32(axis + int32(4-rank))
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpQuantizedConcat8, accel.PaddingNA, inputs, outs)
}

func lowerConv2DQ(b *graph.Builder, ins, outs []uint32) error {
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
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	filterMin, err := b.GetQuantizationMin(ins[1])
	if err != nil {
		return err
	}
	filterMax, err := b.GetQuantizationMax(ins[1])
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
	return b.AddFusedQuant8Operation(accel.OpQuantizedConv2d8x8to32, params.pad, bias, params.act,
		[]accel.Input{input, filter, inputMin, inputMax, filterMin, filterMax, stride}, outs)
}

func lowerDepthwiseConv2DQ(b *graph.Builder, ins, outs []uint32) error {
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
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	filterMin, err := b.GetQuantizationMin(ins[1])
	if err != nil {
		return err
	}
	filterMax, err := b.GetQuantizationMax(ins[1])
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
	return b.AddFusedQuant8Operation(accel.OpQuantizedDepthwiseConv2d8x8to32, params.pad, bias, params.act,
		[]accel.Input{input, filter, inputMin, inputMax, filterMin, filterMax, stride}, outs)
}

func lowerDequantizeQ(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpDequantize, accel.PaddingNA,
		[]accel.Input{input, inputMin, inputMax}, outs)
}

func lowerFullyConnectedQ(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 4 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	weights, err := b.GetTensor(ins[1])
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
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	weightsMin, err := b.GetQuantizationMin(ins[1])
	if err != nil {
		return err
	}
	weightsMax, err := b.GetQuantizationMax(ins[1])
	if err != nil {
		return err
	}
	return b.AddFusedQuant8Operation(accel.OpQuantizedMatMul8x8to32, accel.PaddingNA, bias, act,
		[]accel.Input{input, weights, inputMin, inputMax, weightsMin, weightsMax}, outs)
}

func lowerLogisticQ(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	// the sigmoid's native range ends one level past the top quantized
	// value
	inputMax, err := b.CreateQuantizationValue(ins[0], 256)
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpQuantizedSigmoid8, accel.PaddingNA,
		[]accel.Input{input, inputMin, inputMax}, outs)
}

func lowerReluQ(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpQuantizedRelu8, accel.PaddingNA,
		[]accel.Input{input, inputMin, inputMax}, outs)
}

func lowerRelu1Q(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
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
	return b.AddBasicOperation(accel.OpQuantizedClamp8, accel.PaddingNA,
		[]accel.Input{input, inputMin, inputMax, min, max}, outs)
}

func lowerRelu6Q(b *graph.Builder, ins, outs []uint32) error {
	if len(ins) != 1 || len(outs) != 1 {
		return ErrArity
	}
	input, err := b.GetTensor(ins[0])
	if err != nil {
		return err
	}
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	max, err := b.CreateScalarFloat32(6.0)
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpQuantizedReluX8, accel.PaddingNA,
		[]accel.Input{input, inputMin, inputMax, max}, outs)
}

func lowerReshapeQ(b *graph.Builder, ins, outs []uint32) error {
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
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpQuantizedReshape, accel.PaddingNA,
		[]accel.Input{input, newDims, inputMin, inputMax}, outs)
}

func lowerSoftmaxQ(b *graph.Builder, ins, outs []uint32) error {
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
	inputMin, err := b.GetQuantizationMin(ins[0])
	if err != nil {
		return err
	}
	inputMax, err := b.GetQuantizationMax(ins[0])
	if err != nil {
		return err
	}
	return b.AddBasicOperation(accel.OpQuantizedSoftmax8, accel.PaddingNA,
		[]accel.Input{input, inputMin, inputMax, beta}, outs)
}
