package shape

import (
	"fmt"

	"github.com/flintml/flint/model"
)

// The Prepare functions compute an operation's output shape from its input
// shapes and scalar parameters. Each returns the output dimensions without
// mutating its arguments; callers decide whether to compare against or
// overwrite the declared output operand.

// AddMulPrepare infers the output of an elementwise binary operation as the
// broadcast of its two inputs. The inputs must share a numeric type.
func AddMulPrepare(in1, in2 Shape) ([]uint32, error) {
	if in1.Type != in2.Type {
		return nil, fmt.Errorf("%s vs %s: %w", in1.Type, in2.Type, ErrIncompatible)
	}
	if err := in1.Validate(); err != nil {
		return nil, err
	}
	if err := in2.Validate(); err != nil {
		return nil, err
	}
	return Broadcast(in1.Dimensions, in2.Dimensions)
}

// ConvPrepare infers the output of a 2-D convolution. Input is
// batch-height-width-depth, filter is outdepth-height-width-depth, bias is
// a vector of the filter's output depth.
func ConvPrepare(input, filter, bias Shape,
	padLeft, padRight, padTop, padBottom, strideWidth, strideHeight uint32) ([]uint32, error) {
	if len(input.Dimensions) != 4 || len(filter.Dimensions) != 4 {
		return nil, fmt.Errorf("conv wants rank-4 input and filter: %w", ErrRank)
	}
	if len(bias.Dimensions) != 1 || bias.Dimensions[0] != filter.Dimensions[0] {
		return nil, fmt.Errorf("bias must match filter output depth: %w", ErrIncompatible)
	}
	if input.Dimensions[3] != filter.Dimensions[3] {
		return nil, fmt.Errorf("input depth %d vs filter depth %d: %w",
			input.Dimensions[3], filter.Dimensions[3], ErrIncompatible)
	}
	return windowedOutput(input, filter.Dimensions[2], filter.Dimensions[1], filter.Dimensions[0],
		padLeft, padRight, padTop, padBottom, strideWidth, strideHeight)
}

// DepthwiseConvPrepare infers the output of a depthwise 2-D convolution.
// The filter is 1-height-width-outdepth; output depth equals the filter's
// last axis.
func DepthwiseConvPrepare(input, filter, bias Shape,
	padLeft, padRight, padTop, padBottom, strideWidth, strideHeight uint32) ([]uint32, error) {
	if len(input.Dimensions) != 4 || len(filter.Dimensions) != 4 {
		return nil, fmt.Errorf("depthwise conv wants rank-4 input and filter: %w", ErrRank)
	}
	if len(bias.Dimensions) != 1 || bias.Dimensions[0] != filter.Dimensions[3] {
		return nil, fmt.Errorf("bias must match filter output depth: %w", ErrIncompatible)
	}
	return windowedOutput(input, filter.Dimensions[2], filter.Dimensions[1], filter.Dimensions[3],
		padLeft, padRight, padTop, padBottom, strideWidth, strideHeight)
}

// PoolPrepare infers the output of a pooling operation; depth is preserved.
func PoolPrepare(input Shape,
	padLeft, padRight, padTop, padBottom,
	strideWidth, strideHeight, filterWidth, filterHeight uint32) ([]uint32, error) {
	if len(input.Dimensions) != 4 {
		return nil, fmt.Errorf("pool wants rank-4 input: %w", ErrRank)
	}
	return windowedOutput(input, filterWidth, filterHeight, input.Dimensions[3],
		padLeft, padRight, padTop, padBottom, strideWidth, strideHeight)
}

func windowedOutput(input Shape, filterWidth, filterHeight, outDepth,
	padLeft, padRight, padTop, padBottom, strideWidth, strideHeight uint32) ([]uint32, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if strideWidth == 0 || strideHeight == 0 {
		return nil, fmt.Errorf("stride: %w", ErrZeroDimension)
	}
	height := input.Dimensions[1] + padTop + padBottom
	width := input.Dimensions[2] + padLeft + padRight
	if filterHeight > height || filterWidth > width {
		return nil, fmt.Errorf("filter %dx%d exceeds padded input %dx%d: %w",
			filterHeight, filterWidth, height, width, ErrIncompatible)
	}
	outHeight := (height-filterHeight)/strideHeight + 1
	outWidth := (width-filterWidth)/strideWidth + 1
	return []uint32{input.Dimensions[0], outHeight, outWidth, outDepth}, nil
}

// FullyConnectedPrepare infers the output of a fully connected layer. The
// input collapses to batches of the weights' input size; the output is one
// unit vector per batch.
func FullyConnectedPrepare(input, weights, bias Shape) ([]uint32, error) {
	if len(weights.Dimensions) != 2 {
		return nil, fmt.Errorf("weights must be rank 2: %w", ErrRank)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	units, inputSize := weights.Dimensions[0], weights.Dimensions[1]
	if inputSize == 0 {
		return nil, fmt.Errorf("weights: %w", ErrZeroDimension)
	}
	if len(bias.Dimensions) != 1 || bias.Dimensions[0] != units {
		return nil, fmt.Errorf("bias must match unit count: %w", ErrIncompatible)
	}
	total := input.NumElements()
	if total%inputSize != 0 {
		return nil, fmt.Errorf("input of %d elements is not divisible into rows of %d: %w",
			total, inputSize, ErrIncompatible)
	}
	return []uint32{total / inputSize, units}, nil
}

// ConcatenationPrepare infers the output of concatenating the inputs along
// axis. All inputs must agree on rank, type and every non-axis dimension.
func ConcatenationPrepare(inputs []Shape, axis int32) ([]uint32, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs: %w", ErrIncompatible)
	}
	first := inputs[0]
	rank := len(first.Dimensions)
	if axis < 0 || int(axis) >= rank {
		return nil, fmt.Errorf("axis %d for rank %d: %w", axis, rank, ErrRank)
	}
	out := make([]uint32, rank)
	copy(out, first.Dimensions)
	for _, in := range inputs[1:] {
		if in.Type != first.Type || len(in.Dimensions) != rank {
			return nil, fmt.Errorf("concatenation inputs disagree: %w", ErrIncompatible)
		}
		for d := 0; d < rank; d++ {
			if int32(d) == axis {
				continue
			}
			if in.Dimensions[d] != first.Dimensions[d] {
				return nil, fmt.Errorf("axis %d: %d vs %d: %w",
					d, in.Dimensions[d], first.Dimensions[d], ErrIncompatible)
			}
		}
		out[axis] += in.Dimensions[axis]
	}
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReshapePrepare infers the output of a reshape from the target dimension
// list. At most one target entry may be -1, standing for whatever extent
// makes the element counts match.
func ReshapePrepare(input Shape, target []int32) ([]uint32, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	total := input.NumElements()
	out := make([]uint32, len(target))
	known := uint32(1)
	wildcard := -1
	for i, dim := range target {
		switch {
		case dim == -1:
			if wildcard != -1 {
				return nil, fmt.Errorf("multiple -1 entries in target shape: %w", ErrIncompatible)
			}
			wildcard = i
		case dim <= 0:
			return nil, fmt.Errorf("target dimension %d: %w", dim, ErrZeroDimension)
		default:
			out[i] = uint32(dim)
			known *= uint32(dim)
		}
	}
	if wildcard >= 0 {
		if known == 0 || total%known != 0 {
			return nil, fmt.Errorf("cannot infer -1 from %d elements: %w", total, ErrIncompatible)
		}
		out[wildcard] = total / known
		known *= out[wildcard]
	}
	if known != total {
		return nil, fmt.Errorf("reshape %d elements to %d: %w", total, known, ErrIncompatible)
	}
	return out, nil
}

// ResizeBilinearPrepare infers the output of a bilinear resize to the given
// width and height.
func ResizeBilinearPrepare(input Shape, width, height int32) ([]uint32, error) {
	if len(input.Dimensions) != 4 {
		return nil, fmt.Errorf("resize wants rank-4 input: %w", ErrRank)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("target %dx%d: %w", height, width, ErrZeroDimension)
	}
	return []uint32{input.Dimensions[0], uint32(height), uint32(width), input.Dimensions[3]}, nil
}

// ActivationPrepare infers the output of a shape-preserving unary
// operation (relu family, logistic, tanh, softmax).
func ActivationPrepare(input Shape) ([]uint32, error) {
	if len(input.Dimensions) > 4 {
		return nil, fmt.Errorf("rank %d: %w", len(input.Dimensions), ErrRank)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	out := make([]uint32, len(input.Dimensions))
	copy(out, input.Dimensions)
	return out, nil
}

// NormalizationPrepare infers the output of a shape-preserving
// normalization; the input must be rank 4.
func NormalizationPrepare(input Shape) ([]uint32, error) {
	if len(input.Dimensions) != 4 {
		return nil, fmt.Errorf("normalization wants rank-4 input: %w", ErrRank)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	out := make([]uint32, 4)
	copy(out, input.Dimensions)
	return out, nil
}

// DequantizePrepare infers the output of a dequantization: same dimensions,
// float element type.
func DequantizePrepare(input Shape) ([]uint32, error) {
	if input.Type != model.TensorQuant8Asymm {
		return nil, fmt.Errorf("dequantize wants a quantized input: %w", ErrIncompatible)
	}
	return ActivationPrepare(input)
}
