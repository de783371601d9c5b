// Copyright 2026 Flint ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model defines the vendor-neutral neural-network graph description
// consumed by the flint driver.
//
// A Model is an already-parsed graph: a flat operand table, an ordered
// operation list, and the indexes of the model's inputs and outputs. The
// driver consumes it read-only; all accelerator-specific state lives in the
// lowered graph, never here.
//
// Example:
//
//	var m model.Model
//	if err := json.Unmarshal(data, &m); err != nil { ... }
//	if err := m.Validate(); err != nil { ... }
package model

// OperandType identifies the numeric representation of an operand.
type OperandType int32

// Operand numeric representations.
const (
	Float32 OperandType = iota
	Int32
	UInt32
	TensorFloat32
	TensorInt32
	TensorQuant8Asymm
)

// String returns a human-readable type name.
func (t OperandType) String() string {
	switch t {
	case Float32:
		return "FLOAT32"
	case Int32:
		return "INT32"
	case UInt32:
		return "UINT32"
	case TensorFloat32:
		return "TENSOR_FLOAT32"
	case TensorInt32:
		return "TENSOR_INT32"
	case TensorQuant8Asymm:
		return "TENSOR_QUANT8_ASYMM"
	default:
		return "UNKNOWN"
	}
}

// Size returns the per-element byte size of the type, or 0 if the type is
// not recognized.
func (t OperandType) Size() uint32 {
	switch t {
	case Float32, Int32, UInt32, TensorFloat32, TensorInt32:
		return 4
	case TensorQuant8Asymm:
		return 1
	default:
		return 0
	}
}

// IsTensor reports whether the type describes a tensor rather than a scalar.
func (t OperandType) IsTensor() bool {
	return t == TensorFloat32 || t == TensorInt32 || t == TensorQuant8Asymm
}

// Lifetime classifies where an operand's value comes from.
type Lifetime int32

// Operand lifetimes.
const (
	TemporaryVariable Lifetime = iota
	ModelInput
	ModelOutput
	ConstantCopy
	ConstantReference
)

// String returns a human-readable lifetime name.
func (l Lifetime) String() string {
	switch l {
	case TemporaryVariable:
		return "TEMPORARY_VARIABLE"
	case ModelInput:
		return "MODEL_INPUT"
	case ModelOutput:
		return "MODEL_OUTPUT"
	case ConstantCopy:
		return "CONSTANT_COPY"
	case ConstantReference:
		return "CONSTANT_REFERENCE"
	default:
		return "UNKNOWN"
	}
}

// IsConstant reports whether the operand's value is fixed at model
// construction time.
func (l Lifetime) IsConstant() bool {
	return l == ConstantCopy || l == ConstantReference
}

// DataLocation points at an operand's backing bytes, either within the
// model's OperandValues blob (ConstantCopy) or within a memory pool
// (ConstantReference and request arguments).
type DataLocation struct {
	PoolIndex uint32 `json:"pool_index"`
	Offset    uint32 `json:"offset"`
	Length    uint32 `json:"length"`
}

// Operand is one tensor or scalar value slot in the model graph.
type Operand struct {
	Type       OperandType  `json:"type"`
	Dimensions []uint32     `json:"dimensions"`
	Scale      float32      `json:"scale"`
	ZeroPoint  int32        `json:"zero_point"`
	Lifetime   Lifetime     `json:"lifetime"`
	Location   DataLocation `json:"location"`
}

// OperationType identifies one generic graph operation.
type OperationType int32

// Supported generic operations.
const (
	Add OperationType = iota
	AveragePool2D
	Concatenation
	Conv2D
	DepthwiseConv2D
	Dequantize
	FullyConnected
	L2Pool2D
	LocalResponseNormalization
	Logistic
	MaxPool2D
	Mul
	Relu
	Relu1
	Relu6
	Reshape
	ResizeBilinear
	Softmax
	Tanh
)

var operationNames = [...]string{
	"ADD",
	"AVERAGE_POOL_2D",
	"CONCATENATION",
	"CONV_2D",
	"DEPTHWISE_CONV_2D",
	"DEQUANTIZE",
	"FULLY_CONNECTED",
	"L2_POOL_2D",
	"LOCAL_RESPONSE_NORMALIZATION",
	"LOGISTIC",
	"MAX_POOL_2D",
	"MUL",
	"RELU",
	"RELU1",
	"RELU6",
	"RESHAPE",
	"RESIZE_BILINEAR",
	"SOFTMAX",
	"TANH",
}

// String returns the canonical operation name.
func (t OperationType) String() string {
	if t < 0 || int(t) >= len(operationNames) {
		return "UNKNOWN"
	}
	return operationNames[t]
}

// FusedActivation selects an activation function fused into an operation.
type FusedActivation int32

// Fused activation functions.
const (
	ActivationNone FusedActivation = iota
	ActivationRelu
	ActivationRelu1
	ActivationRelu6
)

// Operation is one unit of generic work: an operation kind plus the operand
// indexes it reads and writes. Input and output positions are fixed per
// operation kind.
type Operation struct {
	Type    OperationType `json:"type"`
	Inputs  []uint32      `json:"inputs"`
	Outputs []uint32      `json:"outputs"`
}

// Pool describes one shared memory region referenced by operands or request
// arguments. A pool with a path is backed by that file; otherwise it is an
// anonymous in-process region of the given size.
type Pool struct {
	Path string `json:"path,omitempty"`
	Size uint32 `json:"size,omitempty"`
}

// Model is a complete parsed graph description.
type Model struct {
	Operands      []Operand   `json:"operands"`
	Operations    []Operation `json:"operations"`
	InputIndexes  []uint32    `json:"input_indexes"`
	OutputIndexes []uint32    `json:"output_indexes"`
	OperandValues []byte      `json:"operand_values"`
	Pools         []Pool      `json:"pools,omitempty"`
}

// RequestArgument binds one model input or output to a region of a request
// pool. A non-empty Dimensions overrides the operand's declared dimensions
// for this request.
type RequestArgument struct {
	Location   DataLocation `json:"location"`
	Dimensions []uint32     `json:"dimensions,omitempty"`
}

// Request is one inference request against a prepared model.
type Request struct {
	Inputs  []RequestArgument `json:"inputs"`
	Outputs []RequestArgument `json:"outputs"`
	Pools   []Pool            `json:"pools,omitempty"`
}
