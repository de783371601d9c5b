package shape

import (
	"errors"
	"reflect"
	"testing"

	"github.com/flintml/flint/model"
)

func TestAlignedDimensions(t *testing.T) {
	tests := []struct {
		name string
		dims []uint32
		n    uint32
		want []uint32
		err  error
	}{
		{"scalar", nil, 4, []uint32{1, 1, 1, 1}, nil},
		{"vector", []uint32{5}, 4, []uint32{1, 1, 1, 5}, nil},
		{"matrix", []uint32{2, 3}, 4, []uint32{1, 1, 2, 3}, nil},
		{"full", []uint32{2, 3, 4, 5}, 4, []uint32{2, 3, 4, 5}, nil},
		{"too many", []uint32{1, 2, 3, 4, 5}, 4, nil, ErrAlignment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AlignedDimensions(tt.dims, tt.n)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBroadcast(t *testing.T) {
	tests := []struct {
		name string
		a, b []uint32
		want []uint32
		err  error
	}{
		{"equal", []uint32{2, 3}, []uint32{2, 3}, []uint32{2, 3}, nil},
		{"scalar rhs", []uint32{2, 3}, []uint32{1}, []uint32{2, 3}, nil},
		{"rank lift", []uint32{4, 1, 3}, []uint32{2, 1}, []uint32{4, 2, 3}, nil},
		{"mismatch", []uint32{2, 3}, []uint32{4, 3}, nil, ErrIncompatible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Broadcast(tt.a, tt.b)
			if !errors.Is(err, tt.err) {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShapeByteSize(t *testing.T) {
	s := Shape{Type: model.TensorFloat32, Dimensions: []uint32{2, 3, 4}}
	if got := s.ByteSize(); got != 2*3*4*4 {
		t.Errorf("float byte size = %d, want %d", got, 2*3*4*4)
	}
	q := Shape{Type: model.TensorQuant8Asymm, Dimensions: []uint32{2, 3, 4}}
	if got := q.ByteSize(); got != 2*3*4 {
		t.Errorf("quant byte size = %d, want %d", got, 2*3*4)
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{Dimensions: []uint32{1, 2}}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{Dimensions: []uint32{1, 0, 2}}).Validate(); !errors.Is(err, ErrZeroDimension) {
		t.Errorf("zero dimension not rejected: %v", err)
	}
}
