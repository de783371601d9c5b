package ops

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/internal/graph"
	"github.com/flintml/flint/model"
)

// modelBuilder assembles test models operand by operand, packing constants
// into the operand value blob.
type modelBuilder struct {
	m model.Model
}

func (mb *modelBuilder) operand(op model.Operand) uint32 {
	mb.m.Operands = append(mb.m.Operands, op)
	return uint32(len(mb.m.Operands) - 1)
}

func (mb *modelBuilder) constData(op model.Operand, data []byte) uint32 {
	op.Lifetime = model.ConstantCopy
	op.Location = model.DataLocation{
		Offset: uint32(len(mb.m.OperandValues)),
		Length: uint32(len(data)),
	}
	mb.m.OperandValues = append(mb.m.OperandValues, data...)
	return mb.operand(op)
}

func (mb *modelBuilder) constInt32(v int32) uint32 {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(v))
	return mb.constData(model.Operand{Type: model.Int32}, data)
}

func (mb *modelBuilder) constFloat32(v float32) uint32 {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, math.Float32bits(v))
	return mb.constData(model.Operand{Type: model.Float32}, data)
}

func (mb *modelBuilder) input(op model.Operand) uint32 {
	op.Lifetime = model.ModelInput
	index := mb.operand(op)
	mb.m.InputIndexes = append(mb.m.InputIndexes, index)
	return index
}

func (mb *modelBuilder) output(op model.Operand) uint32 {
	op.Lifetime = model.ModelOutput
	index := mb.operand(op)
	mb.m.OutputIndexes = append(mb.m.OutputIndexes, index)
	return index
}

func (mb *modelBuilder) operation(t model.OperationType, ins, outs []uint32) {
	mb.m.Operations = append(mb.m.Operations, model.Operation{Type: t, Inputs: ins, Outputs: outs})
}

func floatTensor(dims ...uint32) model.Operand {
	return model.Operand{Type: model.TensorFloat32, Dimensions: dims}
}

func quantTensor(scale float32, zeroPoint int32, dims ...uint32) model.Operand {
	return model.Operand{
		Type: model.TensorQuant8Asymm, Dimensions: dims,
		Scale: scale, ZeroPoint: zeroPoint,
	}
}

func compile(t *testing.T, m *model.Model) (*accel.Simulator, *graph.Builder) {
	t.Helper()
	sim := accel.NewSimulator()
	b, err := graph.NewBuilder(m, sim, NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close() })
	if err := b.Compile(); err != nil {
		t.Fatal(err)
	}
	return sim, b
}

func opSequence(sim *accel.Simulator, b *graph.Builder) []accel.OpType {
	return sim.OpSequence(b.Session())
}

func sameOps(a, b []accel.OpType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFloatAddElidesPassThroughActivation(t *testing.T) {
	tests := []struct {
		name string
		act  int32
		want []accel.OpType
	}{
		{"none", 0, []accel.OpType{accel.OpINPUT, accel.OpAddF, accel.OpOUTPUT}},
		{"relu", 1, []accel.OpType{accel.OpINPUT, accel.OpAddF, accel.OpReluF, accel.OpOUTPUT}},
		{"relu1", 2, []accel.OpType{accel.OpINPUT, accel.OpAddF, accel.OpClampF, accel.OpOUTPUT}},
		{"relu6", 3, []accel.OpType{accel.OpINPUT, accel.OpAddF, accel.OpReluXF, accel.OpOUTPUT}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mb modelBuilder
			in1 := mb.input(floatTensor(1, 2, 2))
			in2 := mb.input(floatTensor(1, 2, 2))
			act := mb.constInt32(tt.act)
			out := mb.output(floatTensor(1, 2, 2))
			mb.operation(model.Add, []uint32{in1, in2, act}, []uint32{out})

			sim, b := compile(t, &mb.m)
			if got := opSequence(sim, b); !sameOps(got, tt.want) {
				t.Errorf("op sequence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantConvRequantizeChain(t *testing.T) {
	var mb modelBuilder
	input := mb.input(quantTensor(0.5, 0, 1, 8, 8, 1))
	filter := mb.constData(quantTensor(0.25, 128, 1, 3, 3, 1), make([]byte, 9))
	bias := mb.constData(model.Operand{Type: model.TensorInt32, Dimensions: []uint32{1}}, make([]byte, 4))
	padLeft := mb.constInt32(1)
	padRight := mb.constInt32(1)
	padTop := mb.constInt32(1)
	padBottom := mb.constInt32(1)
	strideW := mb.constInt32(1)
	strideH := mb.constInt32(1)
	act := mb.constInt32(1) // relu
	out := mb.output(quantTensor(0.5, 0, 1, 8, 8, 1))
	mb.operation(model.Conv2D,
		[]uint32{input, filter, bias, padLeft, padRight, padTop, padBottom, strideW, strideH, act},
		[]uint32{out})

	sim, b := compile(t, &mb.m)
	want := []accel.OpType{
		accel.OpINPUT,
		accel.OpQuantizedConv2d8x8to32,
		accel.OpAddInt32,
		accel.OpRequantize32to8,
		accel.OpQuantizedRelu8,
		accel.OpOUTPUT,
	}
	if got := opSequence(sim, b); !sameOps(got, want) {
		t.Errorf("op sequence = %v, want %v", got, want)
	}
}

func TestFloatConvImplicitPadding(t *testing.T) {
	var mb modelBuilder
	input := mb.input(floatTensor(1, 8, 8, 1))
	filter := mb.constData(floatTensor(2, 3, 3, 1), make([]byte, 2*3*3*4))
	bias := mb.constData(floatTensor(2), make([]byte, 8))
	scheme := mb.constInt32(1) // SAME
	strideW := mb.constInt32(1)
	strideH := mb.constInt32(1)
	act := mb.constInt32(0)
	out := mb.output(floatTensor(1, 8, 8, 2))
	mb.operation(model.Conv2D,
		[]uint32{input, filter, bias, scheme, strideW, strideH, act},
		[]uint32{out})

	sim, b := compile(t, &mb.m)
	want := []accel.OpType{accel.OpINPUT, accel.OpConv2dF, accel.OpBiasAddF, accel.OpOUTPUT}
	if got := opSequence(sim, b); !sameOps(got, want) {
		t.Errorf("op sequence = %v, want %v", got, want)
	}
}

func TestFloatMaxPoolExplicitPadding(t *testing.T) {
	var mb modelBuilder
	input := mb.input(floatTensor(1, 8, 8, 3))
	padLeft := mb.constInt32(0)
	padRight := mb.constInt32(0)
	padTop := mb.constInt32(0)
	padBottom := mb.constInt32(0)
	strideW := mb.constInt32(2)
	strideH := mb.constInt32(2)
	filterW := mb.constInt32(2)
	filterH := mb.constInt32(2)
	act := mb.constInt32(0)
	out := mb.output(floatTensor(1, 4, 4, 3))
	mb.operation(model.MaxPool2D,
		[]uint32{input, padLeft, padRight, padTop, padBottom, strideW, strideH, filterW, filterH, act},
		[]uint32{out})

	sim, b := compile(t, &mb.m)
	want := []accel.OpType{accel.OpINPUT, accel.OpMaxPoolF, accel.OpOUTPUT}
	if got := opSequence(sim, b); !sameOps(got, want) {
		t.Errorf("op sequence = %v, want %v", got, want)
	}
}

func TestQuantLogistic(t *testing.T) {
	var mb modelBuilder
	input := mb.input(quantTensor(0.0078125, 128, 1, 1, 1, 8))
	out := mb.output(quantTensor(0.00390625, 0, 1, 1, 1, 8))
	mb.operation(model.Logistic, []uint32{input}, []uint32{out})

	sim, b := compile(t, &mb.m)
	want := []accel.OpType{accel.OpINPUT, accel.OpQuantizedSigmoid8, accel.OpOUTPUT}
	if got := opSequence(sim, b); !sameOps(got, want) {
		t.Errorf("op sequence = %v, want %v", got, want)
	}
}

func TestFloatNormalizationWindow(t *testing.T) {
	var mb modelBuilder
	input := mb.input(floatTensor(1, 4, 4, 8))
	radius := mb.constInt32(2)
	bias := mb.constFloat32(1.0)
	alpha := mb.constFloat32(0.0001)
	beta := mb.constFloat32(0.75)
	out := mb.output(floatTensor(1, 4, 4, 8))
	mb.operation(model.LocalResponseNormalization,
		[]uint32{input, radius, bias, alpha, beta}, []uint32{out})

	sim, b := compile(t, &mb.m)
	want := []accel.OpType{accel.OpINPUT, accel.OpLRNF, accel.OpOUTPUT}
	if got := opSequence(sim, b); !sameOps(got, want) {
		t.Errorf("op sequence = %v, want %v", got, want)
	}
}

func TestFullyConnectedFloat(t *testing.T) {
	var mb modelBuilder
	input := mb.input(floatTensor(2, 4))
	weights := mb.constData(floatTensor(3, 4), make([]byte, 3*4*4))
	bias := mb.constData(floatTensor(3), make([]byte, 12))
	act := mb.constInt32(0)
	out := mb.output(floatTensor(2, 3))
	mb.operation(model.FullyConnected, []uint32{input, weights, bias, act}, []uint32{out})

	sim, b := compile(t, &mb.m)
	want := []accel.OpType{accel.OpINPUT, accel.OpMatMulF, accel.OpBiasAddF, accel.OpOUTPUT}
	if got := opSequence(sim, b); !sameOps(got, want) {
		t.Errorf("op sequence = %v, want %v", got, want)
	}
}
