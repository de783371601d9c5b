package accel

import (
	"fmt"
	"strings"
	"sync"
)

// Simulator is an in-process Controller. It performs no numeric work:
// it records the graph it is handed, enforcing the same structural rules
// the native library enforces (fresh nonzero node ids, inputs referencing
// existing output slots, no mutation after prepare), and zero-fills output
// buffers on execute. Tests and the CLI run against it; the fault fields
// make individual entry points fail on demand.
type Simulator struct {
	mu     sync.Mutex
	nextID GraphID
	graphs map[GraphID]*simGraph
	calls  map[string]int

	// Fault injection. FailPrepare fails that many subsequent Prepare
	// calls; FailOps fails AppendNode for the listed opcodes; FailInit
	// fails session creation.
	FailInit    bool
	FailPrepare int
	FailOps     map[OpType]bool
}

type simNode struct {
	id      uint32
	op      OpType
	padding PaddingType
	inputs  []Input
	slots   int
	isConst bool
	data    []byte
}

type simGraph struct {
	nodes    map[uint32]*simNode
	order    []uint32
	prepared bool
	level    int
	log      []string
	cycles   uint64
}

// NewSimulator returns an empty simulator with no sessions.
func NewSimulator() *Simulator {
	return &Simulator{
		nextID: 0,
		graphs: make(map[GraphID]*simGraph),
		calls:  make(map[string]int),
	}
}

// Calls reports how many times the named entry point has been invoked.
func (s *Simulator) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// OpSequence returns the opcode of every non-constant node appended to the
// session, in append order.
func (s *Simulator) OpSequence(id GraphID) []OpType {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[id]
	if !ok {
		return nil
	}
	var seq []OpType
	for _, nodeID := range g.order {
		if node := g.nodes[nodeID]; !node.isConst {
			seq = append(seq, node.op)
		}
	}
	return seq
}

// ConstData returns a copy of the payload recorded for a constant node,
// or nil if the node does not exist or is not a constant.
func (s *Simulator) ConstData(id GraphID, nodeID uint32) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[id]
	if !ok {
		return nil
	}
	node, ok := g.nodes[nodeID]
	if !ok || !node.isConst {
		return nil
	}
	return append([]byte(nil), node.data...)
}

// NodeCount returns the total node count of the session, constants
// included.
func (s *Simulator) NodeCount(id GraphID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[id]
	if !ok {
		return 0
	}
	return len(g.order)
}

// Init implements Controller.
func (s *Simulator) Init() GraphID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["init"]++
	if s.FailInit {
		return 0
	}
	s.nextID++
	id := s.nextID
	s.graphs[id] = &simGraph{nodes: make(map[uint32]*simNode)}
	return id
}

// SetDebugLevel implements Controller.
func (s *Simulator) SetDebugLevel(id GraphID, level int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["set_debug_level"]++
	g, ok := s.graphs[id]
	if !ok {
		return -1
	}
	g.level = level
	return 0
}

func (g *simGraph) append(node *simNode) int {
	if g.prepared {
		return -1
	}
	if node.id == 0 {
		return -1
	}
	if _, exists := g.nodes[node.id]; exists {
		return -1
	}
	for _, in := range node.inputs {
		src, ok := g.nodes[in.SrcID]
		if !ok {
			return -1
		}
		if int(in.OutputIdx) >= src.slots {
			return -1
		}
	}
	g.nodes[node.id] = node
	g.order = append(g.order, node.id)
	g.log = append(g.log, fmt.Sprintf("node %d: %s", node.id, node.op))
	return 0
}

// AppendNode implements Controller.
func (s *Simulator) AppendNode(id GraphID, nodeID uint32, op OpType, padding PaddingType,
	inputs []Input, outputs []Output) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["append_node"]++
	g, ok := s.graphs[id]
	if !ok {
		return -1
	}
	if s.FailOps[op] {
		return -1
	}
	return g.append(&simNode{
		id:      nodeID,
		op:      op,
		padding: padding,
		inputs:  append([]Input(nil), inputs...),
		slots:   len(outputs),
	})
}

// AppendConstNode implements Controller.
func (s *Simulator) AppendConstNode(id GraphID, nodeID uint32, batches, height, width, depth uint32,
	data []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["append_const_node"]++
	g, ok := s.graphs[id]
	if !ok {
		return -1
	}
	if batches == 0 || height == 0 || width == 0 || depth == 0 {
		return -1
	}
	return g.append(&simNode{
		id:      nodeID,
		op:      OpConst,
		slots:   1,
		isConst: true,
		data:    append([]byte(nil), data...),
	})
}

// Prepare implements Controller.
func (s *Simulator) Prepare(id GraphID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["prepare"]++
	g, ok := s.graphs[id]
	if !ok {
		return -1
	}
	if s.FailPrepare > 0 {
		s.FailPrepare--
		return -1
	}
	if g.prepared {
		return -1
	}
	g.prepared = true
	return 0
}

// Execute implements Controller.
func (s *Simulator) Execute(id GraphID, inputs, outputs []TensorDef) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["execute"]++
	g, ok := s.graphs[id]
	if !ok || !g.prepared {
		return -1
	}
	for i := range outputs {
		if outputs[i].Data == nil {
			return -1
		}
		clear(outputs[i].Data)
	}
	g.cycles = uint64(len(g.order)) * 128
	return 0
}

// Teardown implements Controller.
func (s *Simulator) Teardown(id GraphID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["teardown"]++
	if _, ok := s.graphs[id]; !ok {
		return -1
	}
	delete(s.graphs, id)
	return 0
}

// GetLog implements Controller.
func (s *Simulator) GetLog(id GraphID) (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["getlog"]++
	g, ok := s.graphs[id]
	if !ok {
		return "", -1
	}
	return strings.Join(g.log, "\n"), 0
}

// GetDebugLog implements Controller.
func (s *Simulator) GetDebugLog(id GraphID) (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["snpprint"]++
	g, ok := s.graphs[id]
	if !ok {
		return "", -1
	}
	return fmt.Sprintf("nodes: %d, debug level: %d", len(g.order), g.level), 0
}

// GetPerfInfo implements Controller.
func (s *Simulator) GetPerfInfo(id GraphID) ([]PerfInfo, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["get_perfinfo"]++
	g, ok := s.graphs[id]
	if !ok {
		return nil, -1
	}
	info := make([]PerfInfo, 0, len(g.order))
	for _, nodeID := range g.order {
		info = append(info, PerfInfo{NodeID: nodeID})
	}
	return info, 0
}

// GetLastExecutionCycles implements Controller.
func (s *Simulator) GetLastExecutionCycles(id GraphID) (uint64, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["get_last_execution_cycles"]++
	g, ok := s.graphs[id]
	if !ok {
		return 0, -1
	}
	return g.cycles, 0
}

// Version implements Controller.
func (s *Simulator) Version() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["version"]++
	return LibraryVersion, 0
}

// SetPowerSaveLevel implements Controller.
func (s *Simulator) SetPowerSaveLevel(level uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["set_powersave_level"]++
	return 0
}

var _ Controller = (*Simulator)(nil)
