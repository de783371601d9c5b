package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flintml/flint/model"
)

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"operands": [
			{"type": 3, "dimensions": [1, 4], "lifetime": 1},
			{"type": 3, "dimensions": [1, 4], "lifetime": 2}
		],
		"operations": [{"type": 12, "inputs": [0], "outputs": [1]}],
		"input_indexes": [0],
		"output_indexes": [1]
	}`), 0o600))

	m, err := loadModel(path)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, model.Relu, m.Operations[0].Type)

	_, err = loadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMaterializePools(t *testing.T) {
	dir := t.TempDir()
	backing := filepath.Join(dir, "existing.bin")
	require.NoError(t, os.WriteFile(backing, make([]byte, 8), 0o600))

	request := &model.Request{
		Pools: []model.Pool{
			{Size: 16},
			{Path: backing},
		},
	}
	paths, err := materializePools(request, dir, [][]byte{{1, 2, 3}})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// the anonymous pool becomes a seeded file of the declared size
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Len(t, data, 16)
	assert.Equal(t, []byte{1, 2, 3}, data[:3])
	assert.Equal(t, paths[0], request.Pools[0].Path)

	// file-backed pools are left alone
	assert.Equal(t, backing, paths[1])

	// a pool with no size and no seed has no extent to materialize
	_, err = materializePools(&model.Request{Pools: []model.Pool{{}}}, dir, nil)
	assert.Error(t, err)
}

func TestFloat32Values(t *testing.T) {
	data := []byte{0, 0, 128, 63, 0, 0, 0, 64} // 1.0, 2.0
	assert.Equal(t, []float32{1.0, 2.0}, float32Values(data))
	assert.Empty(t, float32Values(data[:3]))
}
