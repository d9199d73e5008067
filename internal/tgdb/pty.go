package tgdb

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/kr/pty"
)

// PTYSupervisor spawns and owns the gdb child process (C1, spec.md §4.1),
// grounded on engine/record.go and engine/replay.go's pty.Start(exec.Command(...))
// pattern from the teacher -- generalized here to annotate=2 instead of rr/MI.
type PTYSupervisor struct {
	cmd      *exec.Cmd
	master   *os.File
	initFile string
}

// StartGdb launches gdbPath --nw --annotate=2 -x <init-file> [args...],
// where the init file pins "set annotate 2" and "set height 0" so gdb never
// blocks waiting for a pager (spec.md §4.1). args is typically
// ["--args", inferiorPath, inferiorArgs...] or a core file path.
func StartGdb(gdbPath string, args ...string) (*PTYSupervisor, error) {
	initFile, err := writeGdbInitFile()
	if err != nil {
		return nil, err
	}

	fullArgs := append([]string{"--nw", "--annotate=2", "-x", initFile}, args...)
	cmd := exec.Command(gdbPath, fullArgs...)

	master, err := pty.Start(cmd)
	if err != nil {
		os.Remove(initFile)
		return nil, fmt.Errorf("tgdb: starting gdb: %w", err)
	}

	return &PTYSupervisor{cmd: cmd, master: master, initFile: initFile}, nil
}

func writeGdbInitFile() (string, error) {
	f, err := os.CreateTemp("", "tgdb-init-*.gdb")
	if err != nil {
		return "", fmt.Errorf("tgdb: creating gdb init file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("set annotate 2\nset height 0\nset width 0\n"); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("tgdb: writing gdb init file: %w", err)
	}
	return f.Name(), nil
}

// Read satisfies io.Reader over the pty master, so a caller can hand this
// directly to a loop that feeds a Core.
func (p *PTYSupervisor) Read(b []byte) (int, error) { return p.master.Read(b) }

// Write satisfies io.Writer over the pty master; Core writes rendered gdb
// commands here.
func (p *PTYSupervisor) Write(b []byte) (int, error) { return p.master.Write(b) }

// Pid returns gdb's process id.
func (p *PTYSupervisor) Pid() int { return p.cmd.Process.Pid }

// Wait blocks until gdb exits and returns its exit error, if any.
func (p *PTYSupervisor) Wait() error { return p.cmd.Wait() }

// Close releases the pty master and removes the temporary init file.
func (p *PTYSupervisor) Close() error {
	os.Remove(p.initFile)
	return p.master.Close()
}

// Signal forwards an OS signal to the gdb process (used by C4's SIGINT
// handling to interrupt an in-flight blocking command at the process
// level, beyond Core.Interrupt's VINTR byte).
func (p *PTYSupervisor) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}
