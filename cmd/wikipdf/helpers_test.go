package main

// Notes:
// - This file contains mocks and helpers shared across the CLI tests.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alnah/go-wikipdf"
)

// ---------------------------------------------------------------------------
// Mock Implementations - For unit testing
// ---------------------------------------------------------------------------

// mockConverter records requests and returns a canned result or error.
// errFor returns a per-input error when set.
type mockConverter struct {
	mu       sync.Mutex
	requests []wikipdf.Request
	diagrams int
	err      error
	errFor   func(input string) error
}

func (m *mockConverter) Convert(_ context.Context, req wikipdf.Request) (*wikipdf.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.errFor != nil {
		if err := m.errFor(req.InputPath); err != nil {
			return nil, err
		}
	}
	if m.err != nil {
		return nil, m.err
	}

	res := &wikipdf.Result{PDFPath: req.OutputPath}
	for i := 0; i < m.diagrams; i++ {
		res.Diagrams = append(res.Diagrams, wikipdf.DiagramArtifact{Index: i})
	}
	return res, nil
}

// recorded returns a copy of the recorded requests.
func (m *mockConverter) recorded() []wikipdf.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]wikipdf.Request(nil), m.requests...)
}

// mockPool hands out a single shared converter.
type mockPool struct {
	conv     CLIConverter
	size     int
	closed   bool
	mu       sync.Mutex
	acquired int
	released int
}

func (p *mockPool) Acquire() CLIConverter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.acquired++
	return p.conv
}

func (p *mockPool) Release(CLIConverter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *mockPool) Size() int {
	return p.size
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// testEnv returns an Environment writing to buffers.
func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{Stdout: &stdout, Stderr: &stderr}, &stdout, &stderr
}

// writeFile creates path (and its parents) with content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("setup mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup write: %v", err)
	}
}

// clearWikiEnv unsets every known WIKIPDF_* variable for the test.
func clearWikiEnv(t *testing.T) {
	t.Helper()
	for name := range knownEnvVars {
		t.Setenv(name, "")
	}
}
