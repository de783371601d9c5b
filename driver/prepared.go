// Copyright 2026 Flint ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package driver

import (
	"errors"

	"github.com/google/uuid"

	"github.com/flintml/flint/internal/graph"
	"github.com/flintml/flint/internal/logger"
	"github.com/flintml/flint/internal/pool"
	"github.com/flintml/flint/model"
)

// Prepared model errors.
var (
	ErrNilCallback = errors.New("nil completion callback")
	ErrClosed      = errors.New("prepared model is closed")
)

// PreparedModel is one lowered model ready for inference. Requests may be
// submitted concurrently; the underlying graph serializes executions.
type PreparedModel struct {
	model   *model.Model
	builder *graph.Builder
	log     logger.Logger
}

// Execute runs the request asynchronously and reports the result through
// done, which is invoked exactly once. A request that fails validation is
// rejected synchronously and done is not called.
func (p *PreparedModel) Execute(request *model.Request, done func(ErrorStatus)) error {
	if done == nil {
		return ErrNilCallback
	}
	if p.builder == nil {
		return ErrClosed
	}
	if err := model.ValidateRequest(request, p.model); err != nil {
		return err
	}

	id := uuid.NewString()
	log := p.log.With("request", id)
	go func() {
		err := p.run(request, log)
		if err != nil {
			log.Error("execution failed", "err", err)
		}
		done(StatusOf(err))
	}()
	return nil
}

// ExecuteSync runs the request on the calling goroutine and returns the
// underlying error. The CLI and tests use this form.
func (p *PreparedModel) ExecuteSync(request *model.Request) error {
	if p.builder == nil {
		return ErrClosed
	}
	if err := model.ValidateRequest(request, p.model); err != nil {
		return err
	}
	return p.run(request, p.log)
}

// run maps the request pools, executes, and releases the pools. Output
// regions in file-backed pools are synced before the pools close.
func (p *PreparedModel) run(request *model.Request, log logger.Logger) error {
	pools, err := pool.MapAll(request.Pools)
	if err != nil {
		return err
	}
	defer func() {
		for _, rp := range pools {
			if cerr := rp.Close(); cerr != nil {
				log.Warn("request pool close failed", "err", cerr)
			}
		}
	}()
	return p.builder.Execute(request, pools)
}

// PerfCounter is one node's accumulated execution counter.
type PerfCounter struct {
	NodeID     uint32 `json:"node_id"`
	Executions uint32 `json:"executions"`
	Counter    uint64 `json:"counter"`
}

// PerfCounters returns the per-node performance counters of the compiled
// graph.
func (p *PreparedModel) PerfCounters() ([]PerfCounter, error) {
	if p.builder == nil {
		return nil, ErrClosed
	}
	info, err := p.builder.PerfCounters()
	if err != nil {
		return nil, err
	}
	counters := make([]PerfCounter, len(info))
	for i, pi := range info {
		counters[i] = PerfCounter{NodeID: pi.NodeID, Executions: pi.Executions, Counter: pi.Counter}
	}
	return counters, nil
}

// SessionLog returns the accelerator session's log buffer.
func (p *PreparedModel) SessionLog() (string, error) {
	if p.builder == nil {
		return "", ErrClosed
	}
	return p.builder.Log()
}

// Close tears down the graph session. In-flight executions must have
// completed; Execute after Close fails with ErrClosed.
func (p *PreparedModel) Close() error {
	if p.builder == nil {
		return nil
	}
	err := p.builder.Close()
	p.builder = nil
	return err
}
