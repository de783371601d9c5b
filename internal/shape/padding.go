package shape

// PaddingScheme classifies how the edges of a windowed operation are
// padded.
type PaddingScheme int32

// Padding schemes.
const (
	PaddingUnknown PaddingScheme = iota
	PaddingSame
	PaddingValid
)

// String returns a human-readable scheme name.
func (p PaddingScheme) String() string {
	switch p {
	case PaddingSame:
		return "SAME"
	case PaddingValid:
		return "VALID"
	default:
		return "UNKNOWN"
	}
}

// ExplicitPadding computes the head/tail padding for one axis from an
// implicit scheme. SAME pads so the output covers ceil(inSize/stride)
// positions, splitting the total with the extra pixel on the trailing
// side; VALID pads nothing.
func ExplicitPadding(inSize, stride, filterSize uint32, scheme PaddingScheme) (head, tail uint32, err error) {
	switch scheme {
	case PaddingValid:
		return 0, 0, nil
	case PaddingSame:
		outSize := (inSize + stride - 1) / stride
		needed := (outSize-1)*stride + filterSize
		var total uint32
		if needed > inSize {
			total = needed - inSize
		}
		return total / 2, total - total/2, nil
	default:
		return 0, 0, ErrUnknownPadding
	}
}

// ClassifyPadding recovers the implicit scheme from explicit per-side
// padding values and the filter geometry. Zero padding on every side is
// VALID; padding exactly matching the SAME split rule is SAME; anything
// else is unknown and unsupported.
func ClassifyPadding(filterWidth, filterHeight, left, right, top, bottom uint32) PaddingScheme {
	if left == 0 && right == 0 && top == 0 && bottom == 0 {
		return PaddingValid
	}
	if left == (filterWidth-1)/2 && right == filterWidth/2 &&
		top == (filterHeight-1)/2 && bottom == filterHeight/2 {
		return PaddingSame
	}
	return PaddingUnknown
}
