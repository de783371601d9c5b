// Package shape implements pure shape and type inference for the generic
// operation set. Nothing in this package touches the accelerator: the same
// functions back both the pre-flight supported-operations query and the
// output-operand sizing performed while lowering.
package shape

import (
	"errors"
	"fmt"

	"github.com/flintml/flint/model"
)

// Inference errors.
var (
	ErrZeroDimension  = errors.New("dimension of size zero")
	ErrRank           = errors.New("unsupported rank")
	ErrIncompatible   = errors.New("incompatible shapes")
	ErrAlignment      = errors.New("rank exceeds alignment")
	ErrUnknownPadding = errors.New("unknown padding scheme")
)

// Shape carries the structural description of one operand: its numeric
// representation, dimensions, and quantization parameters.
type Shape struct {
	Type       model.OperandType
	Dimensions []uint32
	Scale      float32
	Offset     int32
}

// NumElements returns the total element count, or 1 for a scalar.
func (s Shape) NumElements() uint32 {
	n := uint32(1)
	for _, dim := range s.Dimensions {
		n *= dim
	}
	return n
}

// ByteSize returns the total byte size of the shape's data.
func (s Shape) ByteSize() uint32 {
	return s.NumElements() * s.Type.Size()
}

// Validate rejects shapes containing a zero dimension. A zero dimension
// means the operand's extent is unknown, which the accelerator cannot
// represent.
func (s Shape) Validate() error {
	for i, dim := range s.Dimensions {
		if dim == 0 {
			return fmt.Errorf("dimension %d: %w", i, ErrZeroDimension)
		}
	}
	return nil
}

// AlignedDimensions pads dims with leading 1s up to exactly n axes.
// It fails if dims already has more than n axes.
func AlignedDimensions(dims []uint32, n uint32) ([]uint32, error) {
	if uint32(len(dims)) > n {
		return nil, fmt.Errorf("%d dimensions, alignment %d: %w", len(dims), n, ErrAlignment)
	}
	aligned := make([]uint32, n)
	pad := int(n) - len(dims)
	for i := 0; i < pad; i++ {
		aligned[i] = 1
	}
	copy(aligned[pad:], dims)
	return aligned, nil
}

// Broadcast computes the NumPy-style broadcast of two dimension lists:
// compared right to left, dimensions must match or one must be 1; missing
// leading axes count as 1.
func Broadcast(a, b []uint32) ([]uint32, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		ad, bd := uint32(1), uint32(1)
		if idx := len(a) - 1 - i; idx >= 0 {
			ad = a[idx]
		}
		if idx := len(b) - 1 - i; idx >= 0 {
			bd = b[idx]
		}
		switch {
		case ad == bd:
			out[n-1-i] = ad
		case ad == 1:
			out[n-1-i] = bd
		case bd == 1:
			out[n-1-i] = ad
		default:
			return nil, fmt.Errorf("%v vs %v at axis %d: %w", a, b, n-1-i, ErrIncompatible)
		}
	}
	return out, nil
}
