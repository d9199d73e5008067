package tgdb

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Loop is the event loop glue (C8, SPEC_FULL.md §5): one dispatcher
// goroutine owns the Core and is the only goroutine that ever calls
// Core.Feed or Core.Submit, fed by a handful of dumb reader goroutines that
// do nothing but turn blocking reads (and external submissions) into
// channel sends. This mirrors the teacher's own concurrency idiom
// (engine/replay.go's "go io.Copy(os.Stdout, gdbSession)" alongside a
// dispatch loop reading stopEventChan) rather than any async/await-style
// abstraction.
type Loop struct {
	core *Core
	gdb  io.Reader
	sup  *PTYSupervisor

	chunks  chan []byte
	errs    chan error
	sigs    chan os.Signal
	submits chan *Request
}

// NewLoop wires a Core to the pty master it should read gdb's annotate=2
// stream from. sup may be nil in tests that feed a Core directly without a
// real gdb child.
func NewLoop(core *Core, gdb io.Reader, sup *PTYSupervisor) *Loop {
	return &Loop{
		core:    core,
		gdb:     gdb,
		sup:     sup,
		chunks:  make(chan []byte, 64),
		errs:    make(chan error, 1),
		sigs:    make(chan os.Signal, 4),
		submits: make(chan *Request, 16),
	}
}

// Submit hands req to the dispatcher goroutine for Core.Submit. Callers on
// any other goroutine -- a readline REPL, a UI event handler -- must use
// this instead of calling Core.Submit themselves: Core does no locking of
// its own, and the single-dispatcher-goroutine invariant (SPEC_FULL.md §5)
// only holds if every mutation is funneled through this channel.
func (l *Loop) Submit(req *Request) {
	l.submits <- req
}

// Run is the dispatcher goroutine. It blocks until ctx is canceled, the gdb
// pty reports EOF or an error (the child exited and closed its end), or
// SIGCHLD reports the child has terminated.
func (l *Loop) Run(ctx context.Context) error {
	signal.Notify(l.sigs, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGCHLD)
	defer signal.Stop(l.sigs)

	go l.readGdb()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-l.errs:
			// spec.md §7: I/O failure on gdb fd -> emit Quit{-1, 0} and
			// close fds; no further reads are serviced past this point.
			l.core.IOFailure()
			if l.sup != nil {
				l.sup.Close()
			}
			return err

		case chunk := <-l.chunks:
			l.core.Feed(chunk)

		case req := <-l.submits:
			l.core.Submit(req)

		case sig := <-l.sigs:
			switch sig {
			case syscall.SIGINT:
				l.core.Interrupt()
				if l.sup != nil {
					l.sup.Signal(syscall.SIGINT)
				}
			case syscall.SIGQUIT:
				if l.sup != nil {
					l.sup.Signal(syscall.SIGQUIT)
				}
			case syscall.SIGTERM:
				if l.sup != nil {
					l.sup.Signal(syscall.SIGTERM)
				}
			case syscall.SIGCHLD:
				// spec.md §4.5: waitpid(pid, WNOHANG) via sup.Wait(); if
				// the child exited, Core emits Quit and we stop servicing
				// the gdb fd. sup.Wait() blocks until the specific pid we
				// supervise exits, so a SIGCHLD meant for some other
				// process (none exist in this driver) would simply stall
				// here rather than return early -- acceptable since we
				// never fork anything besides gdb itself.
				if l.sup != nil {
					l.core.ChildTerminated(l.sup)
					return nil
				}
			}
		}
	}
}

// readGdb is the one "dumb reader" goroutine for the gdb pty master: it
// never touches Core state, only turns Read into channel sends, keeping
// the single-writer invariant intact by construction.
func (l *Loop) readGdb() {
	buf := make([]byte, 4096)
	for {
		n, err := l.gdb.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			l.chunks <- chunk
		}
		if err != nil {
			l.errs <- err
			return
		}
	}
}
