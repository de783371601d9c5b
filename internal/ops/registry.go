// Package ops implements the per-operation validation and lowering logic
// behind the graph builder. Checkers are pure shape and parameter
// validation; lowerings append the accelerator nodes. Both live in static
// tables so the supported-operations query and compilation dispatch the
// same way.
package ops

import (
	"errors"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/graph"
	"github.com/flintml/flint/internal/shape"
	"github.com/flintml/flint/model"
)

// Validation errors.
var (
	ErrArity        = errors.New("wrong operand count")
	ErrNonConstData = errors.New("weight data must be constant")
)

type lowerKey struct {
	op      model.OperationType
	operand model.OperandType
}

// Registry is the static operation table implementing graph.Registry.
type Registry struct {
	checks map[model.OperationType]graph.CheckFn
	lowers map[lowerKey]graph.LowerFn
}

// Check implements graph.Registry.
func (r *Registry) Check(op model.OperationType) (graph.CheckFn, bool) {
	fn, ok := r.checks[op]
	return fn, ok
}

// Lower implements graph.Registry.
func (r *Registry) Lower(op model.OperationType, operand model.OperandType) (graph.LowerFn, bool) {
	fn, ok := r.lowers[lowerKey{op, operand}]
	return fn, ok
}

var _ graph.Registry = (*Registry)(nil)

// NewRegistry returns the full supported operation set.
func NewRegistry() *Registry {
	r := &Registry{
		checks: map[model.OperationType]graph.CheckFn{
			model.Add:                        checkAddMul,
			model.AveragePool2D:              checkPool,
			model.Concatenation:              checkConcatenation,
			model.Conv2D:                     checkConv2D,
			model.DepthwiseConv2D:            checkDepthwiseConv2D,
			model.Dequantize:                 checkDequantize,
			model.FullyConnected:             checkFullyConnected,
			model.L2Pool2D:                   checkPool,
			model.LocalResponseNormalization: checkNormalization,
			model.Logistic:                   checkUnary,
			model.MaxPool2D:                  checkPool,
			model.Mul:                        checkAddMul,
			model.Relu:                       checkUnary,
			model.Relu1:                      checkUnary,
			model.Relu6:                      checkUnary,
			model.Reshape:                    checkReshape,
			model.ResizeBilinear:             checkResizeBilinear,
			model.Softmax:                    checkSoftmax,
			model.Tanh:                       checkUnary,
		},
		lowers: make(map[lowerKey]graph.LowerFn),
	}

	float32Lowerings := map[model.OperationType]graph.LowerFn{
		model.Add:                        lowerAddF,
		model.AveragePool2D:              lowerPoolF(accel.OpAvgPoolF),
		model.Concatenation:              lowerConcatenationF,
		model.Conv2D:                     lowerConv2DF,
		model.DepthwiseConv2D:            lowerDepthwiseConv2DF,
		model.FullyConnected:             lowerFullyConnectedF,
		model.L2Pool2D:                   lowerPoolF(accel.OpL2PoolF),
		model.LocalResponseNormalization: lowerNormalizationF,
		model.Logistic:                   lowerLogisticF,
		model.MaxPool2D:                  lowerPoolF(accel.OpMaxPoolF),
		model.Mul:                        lowerMulF,
		model.Relu:                       lowerReluF,
		model.Relu1:                      lowerRelu1F,
		model.Relu6:                      lowerRelu6F,
		model.Reshape:                    lowerReshapeF,
		model.ResizeBilinear:             lowerResizeBilinearF,
		model.Softmax:                    lowerSoftmaxF,
		model.Tanh:                       lowerTanhF,
	}
	for op, fn := range float32Lowerings {
		r.lowers[lowerKey{op, model.TensorFloat32}] = fn
	}

	quant8Lowerings := map[model.OperationType]graph.LowerFn{
		model.Add:             lowerAddQ,
		model.AveragePool2D:   lowerPoolQ(accel.OpQuantizedAvgPool8),
		model.Concatenation:   lowerConcatenationQ,
		model.Conv2D:          lowerConv2DQ,
		model.DepthwiseConv2D: lowerDepthwiseConv2DQ,
		model.Dequantize:      lowerDequantizeQ,
		model.FullyConnected:  lowerFullyConnectedQ,
		model.Logistic:        lowerLogisticQ,
		model.MaxPool2D:       lowerPoolQ(accel.OpQuantizedMaxPool8),
		model.Mul:             lowerMulQ,
		model.Relu:            lowerReluQ,
		model.Relu1:           lowerRelu1Q,
		model.Relu6:           lowerRelu6Q,
		model.Reshape:         lowerReshapeQ,
		model.Softmax:         lowerSoftmaxQ,
	}
	for op, fn := range quant8Lowerings {
		r.lowers[lowerKey{op, model.TensorQuant8Asymm}] = fn
	}

	return r
}

func scalarInt32s(b *graph.Builder, indexes []uint32) ([]int32, error) {
	values := make([]int32, len(indexes))
	for i, index := range indexes {
		v, err := b.GetScalarInt32(index)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func paddingFor(scheme shape.PaddingScheme) accel.PaddingType {
	switch scheme {
	case shape.PaddingSame:
		return accel.PaddingSame
	case shape.PaddingValid:
		return accel.PaddingValid
	}
	return accel.PaddingNA
}
