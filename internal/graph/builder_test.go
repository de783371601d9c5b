package graph

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/flintml/flint/internal/accel"
	"github.com/flintml/flint/model"
)

// stubRegistry drives the builder in tests without the real operation
// tables.
type stubRegistry struct {
	checkErr error
	lower    LowerFn
}

func (r stubRegistry) Check(op model.OperationType) (CheckFn, bool) {
	return func(b *Builder, ins, outs []uint32) error { return r.checkErr }, true
}

func (r stubRegistry) Lower(op model.OperationType, operand model.OperandType) (LowerFn, bool) {
	if r.lower == nil {
		return nil, false
	}
	return r.lower, true
}

// lowerAdd wires a two-input elementwise node the way the real float
// lowerings do.
func lowerAdd(b *Builder, ins, outs []uint32) error {
	return b.AddBasicOperation(accel.OpAddF, accel.PaddingNA,
		[]accel.Input{b.operands[ins[0]].tensor, b.operands[ins[1]].tensor}, outs)
}

// addModel is a minimal two-input float ADD with a constant activation
// selector.
func addModel() *model.Model {
	return &model.Model{
		Operands: []model.Operand{
			{Type: model.TensorFloat32, Dimensions: []uint32{1, 2, 2}, Lifetime: model.ModelInput},
			{Type: model.TensorFloat32, Dimensions: []uint32{1, 2, 2}, Lifetime: model.ModelInput},
			{Type: model.Int32, Lifetime: model.ConstantCopy,
				Location: model.DataLocation{Offset: 0, Length: 4}},
			{Type: model.TensorFloat32, Dimensions: []uint32{1, 2, 2}, Lifetime: model.ModelOutput},
		},
		Operations: []model.Operation{
			{Type: model.Add, Inputs: []uint32{0, 1, 2}, Outputs: []uint32{3}},
		},
		InputIndexes:  []uint32{0, 1},
		OutputIndexes: []uint32{3},
		OperandValues: make([]byte, 4),
	}
}

func newTestBuilder(t *testing.T, m *model.Model, sim *accel.Simulator, reg Registry) *Builder {
	t.Helper()
	b, err := NewBuilder(m, sim, reg, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestNewBuilderInitFailure(t *testing.T) {
	sim := accel.NewSimulator()
	sim.FailInit = true
	if _, err := NewBuilder(addModel(), sim, stubRegistry{}, nil); !errors.Is(err, ErrSessionInit) {
		t.Fatalf("err = %v, want ErrSessionInit", err)
	}
}

func TestResolveConstantCopy(t *testing.T) {
	m := addModel()
	binary.LittleEndian.PutUint32(m.OperandValues, 42)
	b := newTestBuilder(t, m, accel.NewSimulator(), stubRegistry{})

	v, err := b.GetScalarInt32(2)
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Errorf("scalar = %d, want 42", v)
	}
}

func TestResolveConstantCopyBounds(t *testing.T) {
	m := addModel()
	m.Operands[2].Location.Offset = 2 // runs past the 4-byte blob
	sim := accel.NewSimulator()
	if _, err := NewBuilder(m, sim, stubRegistry{}, nil); !errors.Is(err, model.ErrBlobBounds) {
		t.Fatalf("err = %v, want ErrBlobBounds", err)
	}
	// the failed construction must not leak its session
	if got := sim.Calls("init"); got != sim.Calls("teardown") {
		t.Errorf("init %d calls, teardown %d", got, sim.Calls("teardown"))
	}
}

func TestResolveConstantShortBuffer(t *testing.T) {
	m := addModel()
	// a 9-element float tensor claims only 4 bytes of the blob
	m.Operands[2] = model.Operand{
		Type: model.TensorFloat32, Dimensions: []uint32{1, 3, 3, 1},
		Lifetime: model.ConstantCopy,
		Location: model.DataLocation{Offset: 0, Length: 4},
	}
	sim := accel.NewSimulator()
	if _, err := NewBuilder(m, sim, stubRegistry{}, nil); !errors.Is(err, model.ErrBlobBounds) {
		t.Fatalf("err = %v, want ErrBlobBounds", err)
	}
	if got := sim.Calls("init"); got != sim.Calls("teardown") {
		t.Errorf("init %d calls, teardown %d", got, sim.Calls("teardown"))
	}
}

func quantModel() *model.Model {
	return &model.Model{
		Operands: []model.Operand{
			{Type: model.TensorQuant8Asymm, Dimensions: []uint32{1, 1, 1, 4},
				Scale: 0.5, ZeroPoint: 128, Lifetime: model.ModelInput},
			{Type: model.TensorQuant8Asymm, Dimensions: []uint32{1, 1, 1, 4},
				Scale: 0.5, ZeroPoint: 0, Lifetime: model.ModelOutput},
		},
		Operations: []model.Operation{
			{Type: model.Relu, Inputs: []uint32{0}, Outputs: []uint32{1}},
		},
		InputIndexes:  []uint32{0},
		OutputIndexes: []uint32{1},
	}
}

func TestQuantizationRangeCached(t *testing.T) {
	b := newTestBuilder(t, quantModel(), accel.NewSimulator(), stubRegistry{})

	min1, err := b.GetQuantizationMin(0)
	if err != nil {
		t.Fatal(err)
	}
	min2, err := b.GetQuantizationMin(0)
	if err != nil {
		t.Fatal(err)
	}
	if min1 != min2 {
		t.Errorf("min handle not cached: %v vs %v", min1, min2)
	}

	max1, err := b.GetQuantizationMax(0)
	if err != nil {
		t.Fatal(err)
	}
	if max1 == min1 {
		t.Error("min and max share a handle")
	}

	// a point value is a fresh node every time
	v1, err := b.CreateQuantizationValue(0, 256)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := b.CreateQuantizationValue(0, 256)
	if err != nil {
		t.Fatal(err)
	}
	if v1 == v2 {
		t.Errorf("point values share node %v", v1)
	}
}

// constFloat32 decodes the scalar payload recorded for a constant node.
func constFloat32(t *testing.T, sim *accel.Simulator, b *Builder, in accel.Input) float32 {
	t.Helper()
	data := sim.ConstData(b.Session(), in.SrcID)
	if len(data) != 4 {
		t.Fatalf("const node %d payload is %d bytes, want 4", in.SrcID, len(data))
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func TestQuantizationRangeValues(t *testing.T) {
	sim := accel.NewSimulator()
	b := newTestBuilder(t, quantModel(), sim, stubRegistry{})

	// scale 0.5, zero point 128: real value = (quant - 128) * 0.5
	min, err := b.GetQuantizationMin(0)
	if err != nil {
		t.Fatal(err)
	}
	if got := constFloat32(t, sim, b, min); got != -64.0 {
		t.Errorf("min = %v, want -64", got)
	}

	max, err := b.GetQuantizationMax(0)
	if err != nil {
		t.Fatal(err)
	}
	if got := constFloat32(t, sim, b, max); got != 63.5 {
		t.Errorf("max = %v, want 63.5", got)
	}

	v, err := b.CreateQuantizationValue(0, 256)
	if err != nil {
		t.Fatal(err)
	}
	if got := constFloat32(t, sim, b, v); got != 64.0 {
		t.Errorf("value at 256 = %v, want 64", got)
	}
}

func TestActivationBoundConstants(t *testing.T) {
	sim := accel.NewSimulator()
	b := newTestBuilder(t, quantModel(), sim, stubRegistry{})

	args, err := b.activationArgs(accel.OpNop)
	if err != nil || args != nil {
		t.Fatalf("nop args = %v, %v, want none", args, err)
	}

	args, err = b.activationArgs(accel.OpReluXF)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 1 || constFloat32(t, sim, b, args[0]) != 6.0 {
		t.Errorf("relu6 bound = %v, want one arg of 6", args)
	}

	args, err = b.activationArgs(accel.OpClampF)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 2 {
		t.Fatalf("clamp args = %v, want two", args)
	}
	if lo := constFloat32(t, sim, b, args[0]); lo != -1.0 {
		t.Errorf("clamp lower bound = %v, want -1", lo)
	}
	if hi := constFloat32(t, sim, b, args[1]); hi != 1.0 {
		t.Errorf("clamp upper bound = %v, want 1", hi)
	}
}

func TestRegisterOutputsSingleAssignment(t *testing.T) {
	b := newTestBuilder(t, quantModel(), accel.NewSimulator(), stubRegistry{})

	if err := b.registerOutputs([]uint32{1}, 7); err != nil {
		t.Fatal(err)
	}
	op := &b.operands[1]
	want := accel.Input{SrcID: 7, OutputIdx: 0}
	if op.tensor != want {
		t.Errorf("tensor = %v, want %v", op.tensor, want)
	}
	// a quantized operand claims the two range slots behind its data
	if op.min != (accel.Input{SrcID: 7, OutputIdx: 1}) || op.max != (accel.Input{SrcID: 7, OutputIdx: 2}) {
		t.Errorf("range slots = %v, %v", op.min, op.max)
	}

	if err := b.registerOutputs([]uint32{1}, 8); !errors.Is(err, ErrHandleSet) {
		t.Fatalf("second registration: %v, want ErrHandleSet", err)
	}
}

func TestSetShapeAfterHandleSet(t *testing.T) {
	b := newTestBuilder(t, addModel(), accel.NewSimulator(), stubRegistry{})

	if err := b.SetShape(3, []uint32{4}); err != nil {
		t.Fatal(err)
	}
	b.operands[3].tensor = accel.Input{SrcID: 5}
	if err := b.SetShape(3, []uint32{8}); !errors.Is(err, ErrHandleSet) {
		t.Fatalf("err = %v, want ErrHandleSet", err)
	}
}

func TestGetTensorMaterializesOnce(t *testing.T) {
	m := addModel()
	m.Operands[2] = model.Operand{
		Type: model.TensorFloat32, Dimensions: []uint32{2, 2},
		Lifetime: model.ConstantCopy,
		Location: model.DataLocation{Offset: 0, Length: 16},
	}
	m.OperandValues = make([]byte, 16)
	sim := accel.NewSimulator()
	b := newTestBuilder(t, m, sim, stubRegistry{})

	in1, err := b.GetTensor(2)
	if err != nil {
		t.Fatal(err)
	}
	consts := sim.Calls("append_const_node")
	in2, err := b.GetTensor(2)
	if err != nil {
		t.Fatal(err)
	}
	if in1 != in2 {
		t.Errorf("handles differ: %v vs %v", in1, in2)
	}
	if got := sim.Calls("append_const_node"); got != consts {
		t.Errorf("second GetTensor appended a node (%d -> %d)", consts, got)
	}

	// an operand with no resolved buffer has nothing to materialize
	if _, err := b.GetTensor(3); !errors.Is(err, ErrNoBuffer) {
		t.Errorf("err = %v, want ErrNoBuffer", err)
	}
}

func TestTransposeCells(t *testing.T) {
	// 2x3 byte matrix
	got := transposeCells([]byte{1, 2, 3, 4, 5, 6}, 2, 3, 1)
	if want := []byte{1, 4, 2, 5, 3, 6}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// 2x2 matrix of 4-byte cells keeps cells intact
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	got = transposeCells(data, 2, 2, 4)
	want := []byte{0, 1, 2, 3, 8, 9, 10, 11, 4, 5, 6, 7, 12, 13, 14, 15}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGetScalarErrors(t *testing.T) {
	b := newTestBuilder(t, addModel(), accel.NewSimulator(), stubRegistry{})

	if _, err := b.GetScalarInt32(0); !errors.Is(err, ErrNotScalar) {
		t.Errorf("unresolved operand read: %v, want ErrNotScalar", err)
	}
	if _, err := b.GetActivation(2); err != nil {
		t.Errorf("activation 0 rejected: %v", err)
	}

	binary.LittleEndian.PutUint32(b.operands[2].Buffer, uint32(9))
	if _, err := b.GetActivation(2); !errors.Is(err, ErrUnknownActivation) {
		t.Errorf("activation 9 accepted: %v", err)
	}
}

func TestGetScalarFloat32(t *testing.T) {
	m := addModel()
	binary.LittleEndian.PutUint32(m.OperandValues, math.Float32bits(1.5))
	b := newTestBuilder(t, m, accel.NewSimulator(), stubRegistry{})

	v, err := b.GetScalarFloat32(2)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1.5 {
		t.Errorf("scalar = %v, want 1.5", v)
	}
}
