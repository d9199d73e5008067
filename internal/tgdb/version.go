package tgdb

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver"
)

// minGdbConstraint is the lowest gdb version this core has been checked
// against for --annotate=2 support, which predates MI entirely and has
// existed since gdb 5.0. Grounded on
// engine/base.go's CheckGdbExecutable from the teacher, adapted: that
// function treats an unmet constraint as fatal, but a library has no
// business calling log.Fatal on behalf of its caller, so FindGdb returns an
// error instead.
var minGdbConstraint = mustConstraint(">= 5.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// GdbInfo describes the resolved gdb executable this Core will supervise.
type GdbInfo struct {
	Path    string
	Version *semver.Version
}

// FindGdb locates gdbExecutable on $PATH (or takes it as a literal path),
// runs "--version", and parses the reported version. Grounded on
// engine/base.go's getPathAndVersionLineOrFatal/CheckGdbExecutable.
func FindGdb(gdbExecutable string) (GdbInfo, error) {
	if gdbExecutable == "" {
		gdbExecutable = "gdb"
	}

	path, err := exec.LookPath(gdbExecutable)
	if err != nil {
		return GdbInfo{}, fmt.Errorf("tgdb: cannot find %q on PATH: %w", gdbExecutable, err)
	}

	output, err := exec.Command(path, "--version").Output()
	if err != nil {
		return GdbInfo{}, fmt.Errorf("tgdb: %q --version failed: %w", path, err)
	}

	firstLine := strings.SplitN(string(output), "\n", 2)[0]
	fields := strings.Fields(firstLine)
	if len(fields) == 0 {
		return GdbInfo{}, fmt.Errorf("tgdb: could not parse gdb version line %q", firstLine)
	}
	versionString := fields[len(fields)-1]

	ver, err := semver.NewVersion(versionString)
	if err != nil {
		return GdbInfo{}, fmt.Errorf("tgdb: could not parse gdb version %q: %w", versionString, err)
	}

	if !minGdbConstraint.Check(ver) {
		return GdbInfo{}, fmt.Errorf("tgdb: gdb %v too old, need %v", ver, minGdbConstraint)
	}

	return GdbInfo{Path: path, Version: ver}, nil
}

// inferiorTTYConstraint is the version at and after which gdb accepts the
// MI command "-inferior-tty-set" (SPEC_FULL.md open question 1). Below it,
// the equivalent is the CLI command "server tty <name>".
var inferiorTTYConstraint = mustConstraint(">= 7.0.0")

// SupportsInferiorTTYSet reports whether info.Version has MI support for
// setting the inferior's controlling terminal, resolving
// SPEC_FULL.md's open question about -inferior-tty-set vs "tty" by probing
// the same way CheckGdbExecutable probes for a minimum version rather than
// hardcoding a guess.
func (info GdbInfo) SupportsInferiorTTYSet() bool {
	if info.Version == nil {
		return true
	}
	return inferiorTTYConstraint.Check(info.Version)
}
