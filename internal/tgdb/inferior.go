package tgdb

import (
	"fmt"
	"os"

	"github.com/kr/pty"
)

// InferiorTTY is the second pty pair (C7, spec.md §4.1): a dedicated
// terminal for the debugged program's own stdio, kept separate from gdb's
// own annotate=2 control channel so console output from the inferior never
// gets interleaved with gdb's annotations. Grounded on the same
// github.com/kr/pty the teacher uses for its rr/gdb sessions, applied here
// to a plain (non-command) pty pair via pty.Open.
type InferiorTTY struct {
	master *os.File
	slave  *os.File
	name   string
}

// NewInferiorTTY opens a fresh pty pair for the inferior.
func NewInferiorTTY() (*InferiorTTY, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("tgdb: opening inferior pty: %w", err)
	}
	return &InferiorTTY{master: master, slave: slave, name: slave.Name()}, nil
}

// SlaveName is the path gdb should be told to attach the inferior to, via
// Core.ResetInferiorTTY.
func (t *InferiorTTY) SlaveName() string { return t.name }

// Read reads the inferior's stdout/stderr.
func (t *InferiorTTY) Read(b []byte) (int, error) { return t.master.Read(b) }

// Write sends input to the inferior's stdin.
func (t *InferiorTTY) Write(b []byte) (int, error) { return t.master.Write(b) }

// Close releases both ends of the pty pair.
func (t *InferiorTTY) Close() error {
	err1 := t.slave.Close()
	err2 := t.master.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
