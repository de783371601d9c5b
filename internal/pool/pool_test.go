package pool

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flintml/flint/model"
)

func TestMapAnonymous(t *testing.T) {
	p, err := Map(model.Pool{Size: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if p.Size() != 64 {
		t.Errorf("size = %d, want 64", p.Size())
	}
	buf, err := p.DataAt(16, 8)
	if err != nil {
		t.Fatal(err)
	}
	copy(buf, []byte("deadbeef"))
	again, err := p.DataAt(16, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, []byte("deadbeef")) {
		t.Errorf("write not visible through second slice: %q", again)
	}
	if err := p.Flush(); err != nil {
		t.Errorf("flush of anonymous pool: %v", err)
	}
}

func TestMapEmpty(t *testing.T) {
	if _, err := Map(model.Pool{}); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("empty spec not rejected: %v", err)
	}
}

func TestMapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.bin")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xAB}, 32), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := Map(model.Pool{Path: path})
	if err != nil {
		t.Fatal(err)
	}

	buf, err := p.DataAt(0, 32)
	if err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0xAB || buf[31] != 0xAB {
		t.Fatalf("file contents not mapped: % x", buf[:4])
	}

	copy(buf[4:], []byte("out!"))
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data[4:8], []byte("out!")) {
		t.Errorf("write not synced to file: % x", data[4:8])
	}
}

func TestDataAtBounds(t *testing.T) {
	p, err := Map(model.Pool{Size: 16})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	tests := []struct {
		offset, length uint32
	}{
		{16, 1},
		{0, 17},
		{8, 9},
		{^uint32(0), 8}, // offset overflow
	}
	for _, tt := range tests {
		if _, err := p.DataAt(tt.offset, tt.length); !errors.Is(err, ErrBounds) {
			t.Errorf("DataAt(%d, %d) = %v, want ErrBounds", tt.offset, tt.length, err)
		}
	}

	if _, err := p.DataAt(8, 8); err != nil {
		t.Errorf("in-bounds access rejected: %v", err)
	}
	if _, err := p.DataAt(16, 0); err != nil {
		t.Errorf("empty slice at end rejected: %v", err)
	}
}

func TestMapAllCleanup(t *testing.T) {
	specs := []model.Pool{
		{Size: 8},
		{Path: filepath.Join(t.TempDir(), "missing.bin")},
	}
	if _, err := MapAll(specs); err == nil {
		t.Fatal("MapAll with missing file succeeded")
	}

	pools, err := MapAll([]model.Pool{{Size: 8}, {Size: 16}})
	if err != nil {
		t.Fatal(err)
	}
	if len(pools) != 2 || pools[1].Size() != 16 {
		t.Errorf("pools not mapped in order: %v", pools)
	}
	for _, p := range pools {
		if err := p.Close(); err != nil {
			t.Error(err)
		}
	}
}
