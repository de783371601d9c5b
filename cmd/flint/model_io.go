package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/flintml/flint/model"
)

// loadModel parses a model description from a JSON file.
func loadModel(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m model.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return &m, nil
}

// loadRequest parses an inference request from a JSON file.
func loadRequest(path string) (*model.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var r model.Request
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &r, nil
}

// materializePools rewrites anonymous request pools into files under dir so
// outputs survive pool teardown. The optional contents slice seeds each
// pool's initial bytes. Returns the backing path of every pool.
func materializePools(request *model.Request, dir string, contents [][]byte) ([]string, error) {
	paths := make([]string, len(request.Pools))
	for i := range request.Pools {
		p := &request.Pools[i]
		var seed []byte
		if i < len(contents) {
			seed = contents[i]
		}
		if p.Path != "" {
			paths[i] = p.Path
			continue
		}
		size := int(p.Size)
		if size < len(seed) {
			size = len(seed)
		}
		if size == 0 {
			return nil, fmt.Errorf("pool %d: %w", i, model.ErrPoolIndex)
		}
		buf := make([]byte, size)
		copy(buf, seed)
		path := filepath.Join(dir, fmt.Sprintf("pool%d.bin", i))
		if err := os.WriteFile(path, buf, 0o600); err != nil {
			return nil, fmt.Errorf("pool %d: %w", i, err)
		}
		p.Path = path
		p.Size = 0
		paths[i] = path
	}
	return paths, nil
}

// float32Values decodes a little-endian float32 buffer.
func float32Values(data []byte) []float32 {
	values := make([]float32, len(data)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return values
}
