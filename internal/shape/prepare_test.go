package shape

import (
	"errors"
	"reflect"
	"testing"

	"github.com/flintml/flint/model"
)

func f32(dims ...uint32) Shape {
	return Shape{Type: model.TensorFloat32, Dimensions: dims}
}

func TestAddMulPrepare(t *testing.T) {
	got, err := AddMulPrepare(f32(2, 1, 4), f32(3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{2, 3, 4}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := AddMulPrepare(f32(2, 3), Shape{Type: model.TensorQuant8Asymm, Dimensions: []uint32{2, 3}}); !errors.Is(err, ErrIncompatible) {
		t.Errorf("type mismatch not rejected: %v", err)
	}
	if _, err := AddMulPrepare(f32(2, 0), f32(2, 1)); !errors.Is(err, ErrZeroDimension) {
		t.Errorf("zero dimension not rejected: %v", err)
	}
}

func TestConvPrepare(t *testing.T) {
	input := f32(1, 8, 8, 3)
	filter := f32(16, 3, 3, 3)
	bias := f32(16)

	got, err := ConvPrepare(input, filter, bias, 1, 1, 1, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 8, 8, 16}; !reflect.DeepEqual(got, want) {
		t.Errorf("same padding: got %v, want %v", got, want)
	}

	got, err = ConvPrepare(input, filter, bias, 0, 0, 0, 0, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 3, 3, 16}; !reflect.DeepEqual(got, want) {
		t.Errorf("valid stride 2: got %v, want %v", got, want)
	}

	if _, err := ConvPrepare(input, filter, f32(8), 0, 0, 0, 0, 1, 1); !errors.Is(err, ErrIncompatible) {
		t.Errorf("bad bias not rejected: %v", err)
	}
	if _, err := ConvPrepare(f32(1, 8, 8, 4), filter, bias, 0, 0, 0, 0, 1, 1); !errors.Is(err, ErrIncompatible) {
		t.Errorf("depth mismatch not rejected: %v", err)
	}
	if _, err := ConvPrepare(f32(8, 8, 3), filter, bias, 0, 0, 0, 0, 1, 1); !errors.Is(err, ErrRank) {
		t.Errorf("rank-3 input not rejected: %v", err)
	}
}

func TestDepthwiseConvPrepare(t *testing.T) {
	input := f32(1, 8, 8, 3)
	filter := f32(1, 3, 3, 6) // depth multiplier 2
	bias := f32(6)

	got, err := DepthwiseConvPrepare(input, filter, bias, 0, 0, 0, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 6, 6, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPoolPrepare(t *testing.T) {
	got, err := PoolPrepare(f32(1, 8, 8, 3), 0, 0, 0, 0, 2, 2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 4, 4, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := PoolPrepare(f32(1, 8, 8, 3), 0, 0, 0, 0, 0, 1, 2, 2); !errors.Is(err, ErrZeroDimension) {
		t.Errorf("zero stride not rejected: %v", err)
	}
	if _, err := PoolPrepare(f32(1, 2, 2, 3), 0, 0, 0, 0, 1, 1, 4, 4); !errors.Is(err, ErrIncompatible) {
		t.Errorf("oversized filter not rejected: %v", err)
	}
}

func TestFullyConnectedPrepare(t *testing.T) {
	got, err := FullyConnectedPrepare(f32(2, 10), f32(5, 10), f32(5))
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{2, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// a rank-4 input collapses into rows of the weight input size
	got, err = FullyConnectedPrepare(f32(1, 2, 2, 5), f32(3, 10), f32(3))
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("collapsed: got %v, want %v", got, want)
	}

	if _, err := FullyConnectedPrepare(f32(2, 7), f32(5, 10), f32(5)); !errors.Is(err, ErrIncompatible) {
		t.Errorf("indivisible input not rejected: %v", err)
	}
	if _, err := FullyConnectedPrepare(f32(2, 10), f32(5, 10), f32(4)); !errors.Is(err, ErrIncompatible) {
		t.Errorf("bad bias not rejected: %v", err)
	}
}

func TestConcatenationPrepare(t *testing.T) {
	got, err := ConcatenationPrepare([]Shape{f32(1, 2, 2, 3), f32(1, 2, 2, 5)}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 2, 2, 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ConcatenationPrepare([]Shape{f32(1, 2), f32(1, 3)}, 0); !errors.Is(err, ErrIncompatible) {
		t.Errorf("non-axis mismatch not rejected: %v", err)
	}
	if _, err := ConcatenationPrepare([]Shape{f32(1, 2)}, 5); !errors.Is(err, ErrRank) {
		t.Errorf("axis out of range not rejected: %v", err)
	}
}

func TestReshapePrepare(t *testing.T) {
	tests := []struct {
		name   string
		input  Shape
		target []int32
		want   []uint32
		err    error
	}{
		{"exact", f32(2, 3, 4), []int32{6, 4}, []uint32{6, 4}, nil},
		{"wildcard", f32(2, 3, 4), []int32{-1, 4}, []uint32{6, 4}, nil},
		{"flatten", f32(2, 3, 4), []int32{-1}, []uint32{24}, nil},
		{"count mismatch", f32(2, 3), []int32{5}, nil, ErrIncompatible},
		{"double wildcard", f32(2, 3), []int32{-1, -1}, nil, ErrIncompatible},
		{"zero target", f32(2, 3), []int32{0, 6}, nil, ErrZeroDimension},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReshapePrepare(tt.input, tt.target)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResizeBilinearPrepare(t *testing.T) {
	got, err := ResizeBilinearPrepare(f32(1, 8, 8, 3), 16, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 4, 16, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := ResizeBilinearPrepare(f32(1, 8, 8, 3), 0, 4); !errors.Is(err, ErrZeroDimension) {
		t.Errorf("zero width not rejected: %v", err)
	}
}

func TestDequantizePrepare(t *testing.T) {
	q := Shape{Type: model.TensorQuant8Asymm, Dimensions: []uint32{1, 4, 4, 2}}
	got, err := DequantizePrepare(q)
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint32{1, 4, 4, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := DequantizePrepare(f32(1, 4)); !errors.Is(err, ErrIncompatible) {
		t.Errorf("float input not rejected: %v", err)
	}
}
