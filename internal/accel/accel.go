// Package accel defines the boundary to the accelerator's native execution
// library: the wire structs its entry points take, the opcode and padding
// tables from its ABI, and the Controller interface every binding
// implements.
//
// Every entry point returns an integer status where zero means success.
// The Controller is constructed explicitly and injected wherever it is
// needed; test code substitutes the in-process Simulator.
package accel

import "fmt"

// GraphID is the accelerator's opaque session handle. The zero value means
// "not initialized".
type GraphID int32

// Input identifies one tensor flowing out of a previously created node as
// a (producing node, output slot) pair. The zero value means "unset".
type Input struct {
	SrcID     uint32
	OutputIdx uint32
}

// String returns a debug rendering of the reference.
func (in Input) String() string {
	return fmt.Sprintf("input{src_id: %d, output_idx: %d}", in.SrcID, in.OutputIdx)
}

// MaxRank is the highest tensor rank the accelerator represents.
const MaxRank = 8

// Output declares one tensor produced by a node being created: its rank,
// per-axis maximum sizes and element byte size. ZeroOffset and StepSize are
// placeholders the accelerator fills in at execution time for quantized
// tensors.
type Output struct {
	Rank        uint32
	MaxSizes    [MaxRank]uint32
	ElementSize uint32
	ZeroOffset  uint32
	StepSize    float32
}

// TensorDef is the raw tensor descriptor passed to the execute entry point:
// dimensions aligned to exactly four axes plus the flat data buffer.
type TensorDef struct {
	Batches uint32
	Height  uint32
	Width   uint32
	Depth   uint32
	Data    []byte
}

// PaddingType selects the accelerator's edge-padding behavior for a node.
type PaddingType int32

// Native padding kinds, in ABI order.
const (
	PaddingNA PaddingType = iota
	PaddingSame
	PaddingValid
	PaddingMirrorReflect
	PaddingMirrorSymmetric
	PaddingSameCaffe
)

var paddingNames = [...]string{
	"NN_PAD_NA",
	"NN_PAD_SAME",
	"NN_PAD_VALID",
	"NN_PAD_MIRROR_REFLECT",
	"NN_PAD_MIRROR_SYMMETRIC",
	"NN_PAD_SAME_CAFFE",
}

// String returns the native symbol name of the padding kind.
func (p PaddingType) String() string {
	if p < 0 || int(p) >= len(paddingNames) {
		return "<invalid padding_type>"
	}
	return paddingNames[p]
}

// PerfInfo is one per-node performance counter sample.
type PerfInfo struct {
	NodeID     uint32
	Executions uint32
	Counter    uint64
}

// Controller is the set of native entry points the driver calls. All
// methods returning int report an integer status; zero means success.
type Controller interface {
	// Init opens a new graph session. A zero GraphID signals failure.
	Init() GraphID
	// SetDebugLevel adjusts the library's logging verbosity for a session.
	SetDebugLevel(id GraphID, level int) int
	// AppendNode adds one operation node. The node id must be fresh and
	// nonzero; inputs reference earlier nodes' output slots.
	AppendNode(id GraphID, nodeID uint32, op OpType, padding PaddingType,
		inputs []Input, outputs []Output) int
	// AppendConstNode adds one constant tensor node with the given
	// four-axis dimensions and flat data.
	AppendConstNode(id GraphID, nodeID uint32, batches, height, width, depth uint32,
		data []byte) int
	// Prepare compiles the appended graph for execution.
	Prepare(id GraphID) int
	// Execute runs the compiled graph once, reading the input descriptors
	// and filling the output descriptors' buffers.
	Execute(id GraphID, inputs, outputs []TensorDef) int
	// Teardown destroys a session and everything appended to it.
	Teardown(id GraphID) int
	// GetLog retrieves the session's log buffer.
	GetLog(id GraphID) (string, int)
	// GetDebugLog retrieves the session's debug log buffer.
	GetDebugLog(id GraphID) (string, int)
	// GetPerfInfo retrieves per-node performance counters.
	GetPerfInfo(id GraphID) ([]PerfInfo, int)
	// GetLastExecutionCycles reports the accelerator cycle count of the
	// session's most recent execution.
	GetLastExecutionCycles(id GraphID) (uint64, int)
	// Version reports the native library version.
	Version() (int, int)
	// SetPowerSaveLevel adjusts the accelerator's power/performance
	// tradeoff for subsequent executions.
	SetPowerSaveLevel(level uint) int
}

// LibraryVersion is the native library version this driver is built
// against; the device reports itself unavailable for anything else.
const LibraryVersion = 92
