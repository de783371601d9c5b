package graph

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/logger"
	"github.com/flintml/flint/internal/pool"
	"github.com/flintml/flint/internal/shape"
	"github.com/flintml/flint/model"
)

const debugLevel = 99

// Builder lowers one model into an accelerator graph session and runs
// inference requests against it. All exported methods are safe for
// concurrent use; compilation happens lazily on the first Execute.
type Builder struct {
	ctrl     accel.Controller
	registry Registry
	log      logger.Logger

	mu        sync.Mutex
	graphID   accel.GraphID
	nodeCount uint32
	compiled  bool

	operands   []OperandInfo
	operations []model.Operation
	inputs     []uint32
	outputs    []uint32
	pools      []*pool.RunTimePool
}

// NewBuilder opens an accelerator session for the model. The model's pools
// stay mapped for the builder's lifetime; Close releases them.
func NewBuilder(m *model.Model, ctrl accel.Controller, registry Registry, log logger.Logger) (*Builder, error) {
	if log == nil {
		log = logger.Discard()
	}
	id := ctrl.Init()
	if id == 0 {
		return nil, ErrSessionInit
	}
	ctrl.SetDebugLevel(id, debugLevel)

	pools, err := pool.MapAll(m.Pools)
	if err != nil {
		ctrl.Teardown(id)
		return nil, err
	}
	operands, err := resolveOperands(m, pools)
	if err != nil {
		for _, p := range pools {
			_ = p.Close()
		}
		ctrl.Teardown(id)
		return nil, err
	}

	return &Builder{
		ctrl:       ctrl,
		registry:   registry,
		log:        log,
		graphID:    id,
		operands:   operands,
		operations: append([]model.Operation(nil), m.Operations...),
		inputs:     append([]uint32(nil), m.InputIndexes...),
		outputs:    append([]uint32(nil), m.OutputIndexes...),
		pools:      pools,
	}, nil
}

// Close tears down the accelerator session and releases the model pools.
func (b *Builder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var firstErr error
	if b.graphID != 0 {
		if status := b.ctrl.Teardown(b.graphID); status != 0 {
			firstErr = fmt.Errorf("session teardown status %d", status)
		}
		b.graphID = 0
	}
	for _, p := range b.pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.pools = nil
	b.compiled = false
	return firstErr
}

// Session exposes the underlying graph id for diagnostics.
func (b *Builder) Session() accel.GraphID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.graphID
}

// Log returns the session's construction log.
func (b *Builder) Log() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, status := b.ctrl.GetLog(b.graphID)
	if status != 0 {
		return "", fmt.Errorf("log retrieval status %d", status)
	}
	return s, nil
}

// PerfCounters returns the per-node performance counters of the compiled
// graph.
func (b *Builder) PerfCounters() ([]accel.PerfInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, status := b.ctrl.GetPerfInfo(b.graphID)
	if status != 0 {
		return nil, fmt.Errorf("perf counter retrieval status %d", status)
	}
	return info, nil
}

func (b *Builder) nextNode() uint32 {
	b.nodeCount++
	return b.nodeCount
}

func (b *Builder) createTensor(batches, height, width, depth uint32, data []byte) (accel.Input, error) {
	node := b.nextNode()
	if status := b.ctrl.AppendConstNode(b.graphID, node, batches, height, width, depth, data); status != 0 {
		return accel.Input{}, fmt.Errorf("const node %d (%dx%dx%dx%d): %w",
			node, batches, height, width, depth, ErrNodeRejected)
	}
	return accel.Input{SrcID: node}, nil
}

// CreateShape adds a constant node carrying only dimensions. Pooling
// windows and strides are expressed this way; the data is a placeholder.
func (b *Builder) CreateShape(batches, height, width, depth uint32) (accel.Input, error) {
	return b.createTensor(batches, height, width, depth, make([]byte, 4))
}

// CreateValuesFloat32 adds a constant 1x1x1xN float vector.
func (b *Builder) CreateValuesFloat32(values []float32) (accel.Input, error) {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return b.createTensor(1, 1, 1, uint32(len(values)), data)
}

// CreateValuesInt32 adds a constant 1x1x1xN int32 vector.
func (b *Builder) CreateValuesInt32(values []int32) (accel.Input, error) {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
	}
	return b.createTensor(1, 1, 1, uint32(len(values)), data)
}

// CreateScalarFloat32 adds a constant float scalar.
func (b *Builder) CreateScalarFloat32(v float32) (accel.Input, error) {
	return b.CreateValuesFloat32([]float32{v})
}

// CreateScalarInt32 adds a constant int32 scalar.
func (b *Builder) CreateScalarInt32(v int32) (accel.Input, error) {
	return b.CreateValuesInt32([]int32{v})
}

// CreateFilledTensorFloat32 adds a constant tensor of the given dimensions
// with every element set to v.
func (b *Builder) CreateFilledTensorFloat32(batches, height, width, depth uint32, v float32) (accel.Input, error) {
	n := batches * height * width * depth
	data := make([]byte, 4*n)
	bits := math.Float32bits(v)
	for i := uint32(0); i < n; i++ {
		binary.LittleEndian.PutUint32(data[4*i:], bits)
	}
	return b.createTensor(batches, height, width, depth, data)
}

// GetTensor returns the accelerator handle for an operand, materializing a
// constant node on first use.
func (b *Builder) GetTensor(index uint32) (accel.Input, error) {
	op := &b.operands[index]
	if op.tensor != unsetInput {
		return op.tensor, nil
	}
	if op.Buffer == nil {
		return accel.Input{}, fmt.Errorf("operand %d: %w", index, ErrNoBuffer)
	}
	dims, err := shape.AlignedDimensions(op.Dimensions, 4)
	if err != nil {
		return accel.Input{}, fmt.Errorf("operand %d: %w", index, err)
	}
	in, err := b.createTensor(dims[0], dims[1], dims[2], dims[3], op.Buffer)
	if err != nil {
		return accel.Input{}, err
	}
	op.tensor = in
	return in, nil
}

// GetQuantizationMin returns the handle of the real value the operand's
// minimum quantized level represents, creating the constant on first use.
func (b *Builder) GetQuantizationMin(index uint32) (accel.Input, error) {
	op := &b.operands[index]
	if op.min == unsetInput {
		in, err := b.CreateScalarFloat32(float32(0-op.ZeroPoint) * op.Scale)
		if err != nil {
			return accel.Input{}, err
		}
		op.min = in
	}
	return op.min, nil
}

// GetQuantizationMax is the counterpart of GetQuantizationMin for the
// maximum quantized level.
func (b *Builder) GetQuantizationMax(index uint32) (accel.Input, error) {
	op := &b.operands[index]
	if op.max == unsetInput {
		in, err := b.CreateScalarFloat32(float32(255-op.ZeroPoint) * op.Scale)
		if err != nil {
			return accel.Input{}, err
		}
		op.max = in
	}
	return op.max, nil
}

// CreateQuantizationValue adds a constant holding the real value a given
// quantized level of the operand represents. Unlike the cached range
// handles, every call creates a fresh node.
func (b *Builder) CreateQuantizationValue(index uint32, quantValue int32) (accel.Input, error) {
	op := &b.operands[index]
	return b.CreateScalarFloat32(float32(quantValue-op.ZeroPoint) * op.Scale)
}

// transposeCells reinterprets data as a rows-by-cols matrix of cells of
// elemSize bytes and returns its transpose.
func transposeCells(data []byte, rows, cols, elemSize uint32) []byte {
	out := make([]byte, rows*cols*elemSize)
	for r := uint32(0); r < rows; r++ {
		for c := uint32(0); c < cols; c++ {
			src := (r*cols + c) * elemSize
			dst := (c*rows + r) * elemSize
			copy(out[dst:dst+elemSize], data[src:src+elemSize])
		}
	}
	return out
}

// CreateConvFilterTensor adds a convolution filter as a constant node,
// permuting the layout from NHWC to HWCN.
func (b *Builder) CreateConvFilterTensor(index uint32) (accel.Input, error) {
	op := &b.operands[index]
	if op.Buffer == nil {
		return accel.Input{}, fmt.Errorf("operand %d: %w", index, ErrNoBuffer)
	}
	dims, err := shape.AlignedDimensions(op.Dimensions, 4)
	if err != nil {
		return accel.Input{}, fmt.Errorf("operand %d: %w", index, err)
	}
	transposed := transposeCells(op.Buffer, dims[0], dims[1]*dims[2]*dims[3], op.Type.Size())
	return b.createTensor(dims[1], dims[2], dims[3], dims[0], transposed)
}

// CreateDepthwiseFilterTensor adds a depthwise filter as a constant node.
// The data already lays out as height-width-depth; only the declared
// dimensions change, splitting the output depth by the multiplier.
func (b *Builder) CreateDepthwiseFilterTensor(index uint32, depthMultiplier int32) (accel.Input, error) {
	op := &b.operands[index]
	if op.Buffer == nil {
		return accel.Input{}, fmt.Errorf("operand %d: %w", index, ErrNoBuffer)
	}
	if depthMultiplier <= 0 {
		return accel.Input{}, fmt.Errorf("depth multiplier %d: %w", depthMultiplier, shape.ErrZeroDimension)
	}
	dims, err := shape.AlignedDimensions(op.Dimensions, 4)
	if err != nil {
		return accel.Input{}, fmt.Errorf("operand %d: %w", index, err)
	}
	mult := uint32(depthMultiplier)
	return b.createTensor(dims[1], dims[2], dims[3]/mult, dims[0]*mult, op.Buffer)
}

// CreateFullyConnectedWeightTensor adds a weight matrix as a constant
// node, transposing units-by-inputsize into inputsize-by-units.
func (b *Builder) CreateFullyConnectedWeightTensor(index uint32) (accel.Input, error) {
	op := &b.operands[index]
	if op.Buffer == nil {
		return accel.Input{}, fmt.Errorf("operand %d: %w", index, ErrNoBuffer)
	}
	if len(op.Dimensions) != 2 {
		return accel.Input{}, fmt.Errorf("weights rank %d: %w", len(op.Dimensions), shape.ErrRank)
	}
	units, inputSize := op.Dimensions[0], op.Dimensions[1]
	transposed := transposeCells(op.Buffer, units, inputSize, op.Type.Size())
	return b.createTensor(1, 1, inputSize, units, transposed)
}

// GetScalarInt32 reads a constant int32 operand.
func (b *Builder) GetScalarInt32(index uint32) (int32, error) {
	op := &b.operands[index]
	if len(op.Buffer) < 4 {
		return 0, fmt.Errorf("operand %d: %w", index, ErrNotScalar)
	}
	return int32(binary.LittleEndian.Uint32(op.Buffer)), nil
}

// GetScalarFloat32 reads a constant float scalar operand.
func (b *Builder) GetScalarFloat32(index uint32) (float32, error) {
	op := &b.operands[index]
	if len(op.Buffer) < 4 {
		return 0, fmt.Errorf("operand %d: %w", index, ErrNotScalar)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(op.Buffer)), nil
}

// GetInt32Values reads a constant int32 tensor, such as a reshape target.
func (b *Builder) GetInt32Values(index uint32) ([]int32, error) {
	op := &b.operands[index]
	if op.Buffer == nil {
		return nil, fmt.Errorf("operand %d: %w", index, ErrNoBuffer)
	}
	n := shape.Shape{Type: op.Type, Dimensions: op.Dimensions}.NumElements()
	if uint32(len(op.Buffer)) < 4*n {
		return nil, fmt.Errorf("operand %d: %w", index, model.ErrBlobBounds)
	}
	values := make([]int32, n)
	for i := range values {
		values[i] = int32(binary.LittleEndian.Uint32(op.Buffer[4*i:]))
	}
	return values, nil
}

// GetActivation reads a fused activation selector operand.
func (b *Builder) GetActivation(index uint32) (model.FusedActivation, error) {
	v, err := b.GetScalarInt32(index)
	if err != nil {
		return 0, err
	}
	act := model.FusedActivation(v)
	if act < model.ActivationNone || act > model.ActivationRelu6 {
		return 0, fmt.Errorf("activation %d: %w", v, ErrUnknownActivation)
	}
	return act, nil
}
