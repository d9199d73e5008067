package tgdb

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sidkshatriya/tgdb/internal/tgdb/mi"
)

// UiCallbacks is the production surface a front end registers with a Core
// (spec.md §4.6, §6). Every callback runs on the Core's own goroutine; a UI
// that needs to touch its own state from these must hand off itself.
type UiCallbacks struct {
	ConsoleOutput   func(text string)
	ConsoleReady    func()
	RequestSent     func(req *Request, renderedText string)
	CommandResponse func(resp Response)
}

// sinkDest names where a run of plain data bytes currently goes, derived
// from InternalState plus the error-accumulator override (spec.md §4.4).
type sinkDest int

const (
	destConsole sinkDest = iota
	destPrompt
	destMI
	destError
	destDiscard
)

// Core ties the annotation scanner, the command correlator, the two-FIFO
// scheduler and the MI parser into the single request/response surface
// described in spec.md §4.6. One Core serves exactly one gdb child process;
// all of its methods, the byte-feeding Feed included, must be called from a
// single dispatcher goroutine (SPEC_FULL.md §5) -- Core does no locking of
// its own.
type Core struct {
	cb     UiCallbacks
	logger *zap.SugaredLogger
	gdbIn  io.Writer

	scan  *scanner
	sched *scheduler

	state    InternalState
	cmdState CommandState
	prompt   promptCache

	lastDest     sinkDest
	consoleAccum []byte
	miLineBuf    []byte
	errorBuf     []byte
	collecting   bool

	streamLines []string

	sourceInvalidated bool
	bpInvalidated     bool

	hasCurrent bool
	current    pendingCommand

	disassembleProbed bool
	disassembleSupS   bool
	afterProbe        *Request

	breakpoints []Breakpoint

	gdbInfo GdbInfo

	terminated bool
}

// SetGdbInfo records the resolved gdb version (from FindGdb) so
// ResetInferiorTTY renders the right form of the command.
func (c *Core) SetGdbInfo(info GdbInfo) {
	c.gdbInfo = info
}

// ResetInferiorTTY implements C1/C7's contract: tell gdb to attach the
// inferior's stdio to slave, via a priority MI (or legacy CLI) command
// (spec.md §4.1, SPEC_FULL.md open question 1).
func (c *Core) ResetInferiorTTY(slave string) {
	rc := renderInferiorTTYSet(slave, c.gdbInfo.SupportsInferiorTTYSet())
	c.enqueueInternal(rc, true)
}

// NewCore constructs a Core that writes rendered commands to gdbIn and
// reports console text and typed responses through cb.
func NewCore(gdbIn io.Writer, cb UiCallbacks, logger *zap.SugaredLogger) *Core {
	c := &Core{
		cb:     cb,
		logger: logger,
		gdbIn:  gdbIn,
		sched:  newScheduler(),
		state:  StateVoid,
	}
	c.scan = newScanner(c, c.dispatch)
	return c
}

// Feed processes one read of bytes from the gdb pty master (C2's input).
// It is the sole entry point driving the scanner, correlator and scheduler.
func (c *Core) Feed(data []byte) {
	c.scan.feed(data)
	c.flushBoundary(c.lastDest)
}

// sinkByte implements dataSink, routing each plain data byte to its current
// destination (spec.md §4.2's data-sink description, §4.4's filtering
// rules).
func (c *Core) sinkByte(b byte) {
	dest := c.sinkDestination()
	if dest != c.lastDest {
		c.flushBoundary(c.lastDest)
		c.lastDest = dest
	}
	switch dest {
	case destConsole:
		c.consoleAccum = append(c.consoleAccum, b)
	case destPrompt:
		c.prompt.append(b)
	case destMI:
		c.feedMI(b)
	case destError:
		c.errorBuf = append(c.errorBuf, b)
	case destDiscard:
	}
}

func (c *Core) sinkDestination() sinkDest {
	if c.collecting {
		return destError
	}
	switch c.state {
	case StateVoid, StateUserAtPrompt, StateGuiCommand:
		return destConsole
	case StateAtPrompt:
		return destPrompt
	case StateInternalCommand:
		return destMI
	default: // StateUserCommand, StatePostPrompt
		return destDiscard
	}
}

func (c *Core) flushBoundary(prevDest sinkDest) {
	if prevDest == destConsole && len(c.consoleAccum) > 0 {
		text := string(c.consoleAccum)
		c.consoleAccum = c.consoleAccum[:0]
		if c.cb.ConsoleOutput != nil {
			c.cb.ConsoleOutput(text)
		}
	}
}

func (c *Core) feedMI(b byte) {
	if b == '\n' {
		line := string(c.miLineBuf)
		c.miLineBuf = c.miLineBuf[:0]
		c.handleMILine(line)
		return
	}
	c.miLineBuf = append(c.miLineBuf, b)
}

// setInternalState applies spec.md §4.4's guard: while a genuine internal MI
// command is in flight, only a transition to user_at_prompt is honored --
// mirrors original_source/lib/tgdb/state_machine.cpp's data_set_state guard.
func (c *Core) setInternalState(next InternalState) {
	if c.state == StateInternalCommand && next != StateUserAtPrompt {
		return
	}
	c.state = next
	if next == StateAtPrompt {
		c.prompt.reset()
	}
}

// dispatch handles one completed annotation name (spec.md §4.4), grounded on
// original_source/lib/tgdb/state_machine.cpp's annotate-two annotation
// table.
func (c *Core) dispatch(name string) {
	switch name {
	case "source", "frame-end", "frames-invalid":
		c.sourceInvalidated = true

	case "pre-commands", "pre-overload-choice", "pre-instance-choice", "pre-query", "pre-prompt-for-continue":
		c.handleMiscPrePrompt()
	case "commands", "overload-choice", "instance-choice", "query", "prompt-for-continue":
		c.handleMiscPrompt()
	case "post-commands", "post-overload-choice", "post-instance-choice", "post-query", "post-prompt-for-continue":
		c.handleMiscPostPrompt()

	case "pre-prompt":
		c.handlePrePrompt()
	case "prompt":
		c.handlePrompt()
	case "post-prompt":
		c.handlePostPrompt()

	case "error-begin":
		c.collecting = true
		c.errorBuf = c.errorBuf[:0]
	case "error":
		c.flushError()
		c.setInternalState(StateVoid)
	case "quit":
		c.flushError()
		c.setInternalState(StateVoid)

	default:
		if strings.HasPrefix(name, "exited") {
			c.handleExited(name)
			return
		}
		if c.logger != nil {
			c.logger.Debugw("unhandled annotation", "name", name)
		}
	}
}

func (c *Core) flushError() {
	c.collecting = false
	if len(c.errorBuf) > 0 && c.cb.ConsoleOutput != nil {
		c.cb.ConsoleOutput(string(c.errorBuf))
	}
	c.errorBuf = c.errorBuf[:0]
}

func (c *Core) handleMiscPrePrompt() {
	if c.hasCurrent && c.current.internal {
		c.gdbIn.Write([]byte{'\n'})
		return
	}
	c.setInternalState(StateUserAtPrompt)
}

func (c *Core) handleMiscPrompt() {
	c.sched.miscPrompt = true
	c.setInternalState(StateUserAtPrompt)
	c.sched.ready = true
	c.sched.pump(c.deliver)
}

func (c *Core) handleMiscPostPrompt() {
	c.sched.miscPrompt = false
	c.state = StateVoid
}

func (c *Core) handlePrePrompt() {
	if c.sourceInvalidated {
		c.sourceInvalidated = false
		c.enqueueInternal(renderStackInfoFrame(), true)
	}
	if c.bpInvalidated {
		c.bpInvalidated = false
		c.enqueueInternal(renderInfoBreakpoints(), true)
	}
	c.setInternalState(StateAtPrompt)
}

func (c *Core) handlePrompt() {
	c.setInternalState(StateUserAtPrompt)

	text, changed := c.prompt.finalize()
	if changed && c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{Kind: ResponseUpdateConsolePrompt, PromptText: text})
	}

	c.cmdState = CommandVoid
	c.sched.ready = true

	finished := c.current
	hadCurrent := c.hasCurrent
	c.hasCurrent = false

	if hadCurrent && !finished.internal && c.cb.ConsoleReady != nil {
		c.cb.ConsoleReady()
	}

	c.sched.pump(c.deliver)
}

func (c *Core) handlePostPrompt() {
	c.state = StateVoid
}

func (c *Core) handleExited(name string) {
	status := -1
	fields := strings.Fields(name)
	if len(fields) == 2 {
		fmt.Sscanf(fields[1], "%d", &status)
	}
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{Kind: ResponseInferiorExited, InferiorExitStatus: status})
	}
}

// pendingCommand.internal distinguishes a Core-synthesized follow-up query
// (not user input, per handleMiscPrePrompt's auto-answer rule) from anything
// the front end submitted. pendingCommand itself lives in scheduler.go; this
// field is declared there but documented here, where it is read
// (handleMiscPrePrompt, handlePrompt, deliver).

// Submit renders and schedules req, delivering it immediately if the
// scheduler is ready and returning once it has either been written to gdb's
// stdin or queued (spec.md §4.6, §4.5).
func (c *Core) Submit(req *Request) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	if req.Kind == RequestDisassembleFunc && req.DisassembleMode == DisassembleModeSource && !c.disassembleProbed {
		c.disassembleProbed = true
		req.Queued = true
		c.afterProbe = req
		rc := renderDisassembleModeProbe()
		c.enqueueInternal(rc, true)
		return
	}

	rc := renderCommand(req, c.disassembleSupS)
	cmd := pendingCommand{req: req, text: rc.text, oob: rc.oob, cmdState: rc.cmdState, internal: false}
	c.sched.enqueueOrDeliver(cmd, c.deliver)
}

// enqueueInternal schedules a Core-synthesized follow-up query that has no
// originating UI Request.
func (c *Core) enqueueInternal(rc renderedCommand, oob bool) {
	req := &Request{ID: uuid.New(), Queued: true}
	cmd := pendingCommand{req: req, text: rc.text, oob: oob || rc.oob, cmdState: rc.cmdState, internal: true}
	c.sched.enqueueOrDeliver(cmd, c.deliver)
}

func (c *Core) deliver(cmd pendingCommand) {
	c.hasCurrent = true
	c.current = cmd
	c.cmdState = cmd.cmdState
	c.streamLines = c.streamLines[:0]

	if cmd.cmdState != CommandVoid {
		c.setInternalState(StateInternalCommand)
	} else {
		c.state = StateUserCommand
	}

	if !cmd.internal && stateChangingRequest(cmd.req.Kind) {
		c.bpInvalidated = true
	}

	c.gdbIn.Write([]byte(cmd.text))

	if c.cb.RequestSent != nil {
		c.cb.RequestSent(cmd.req, cmd.text)
	}
	if !cmd.internal && cmd.req.Kind != RequestConsoleCommand && c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{
			Kind:                   ResponseDebuggerCommandDelivered,
			DeliveredText:          cmd.text,
			DeliveredUserInitiated: !cmd.internal,
		})
	}
}

// Interrupt implements C4's SIGINT handling (spec.md §4.5): drain both
// queues and send the terminal VINTR byte to gdb's stdin so the in-flight
// command (if any) is cancelled at the process level; the queued commands
// are never retracted from gdb's point of view because they were never
// written.
func (c *Core) Interrupt() {
	c.sched.interrupt()
	c.gdbIn.Write([]byte{0x03})
}

// ChildTerminated reaps the gdb child via sup.Wait() and emits Quit, per
// spec.md §4.5's SIGCHLD handling. Grounded on
// original_source/lib/tgdb/tgdb.cpp's tgdb_get_quit_command: a normal exit
// reports exit_status 0 and return_value the child's real exit code
// (WEXITSTATUS); anything else -- killed by a signal, or the wait itself
// failing -- reports exit_status -1 and return_value 0.
func (c *Core) ChildTerminated(sup *PTYSupervisor) {
	err := sup.Wait()

	exitStatus, returnValue := -1, 0
	if err == nil {
		exitStatus = 0
	} else if ee, ok := err.(*exec.ExitError); ok {
		if code := ee.ExitCode(); code >= 0 {
			exitStatus, returnValue = 0, code
		}
	}

	c.emitQuit(exitStatus, returnValue)
}

// IOFailure emits Quit{-1, 0} for an EOF or read error on gdb's pty master,
// per spec.md §7's "I/O failure on gdb fd" error kind. Grounded on
// original_source/lib/tgdb/tgdb.cpp's tgdb_add_quit_command, which always
// reports this unconditional exit_status/return_value pair.
func (c *Core) IOFailure() {
	c.emitQuit(-1, 0)
}

// emitQuit is idempotent so a duplicate SIGCHLD, or a gdb-fd read error that
// follows a SIGCHLD already handled, never produces a second Quit response.
func (c *Core) emitQuit(exitStatus, returnValue int) {
	if c.terminated {
		return
	}
	c.terminated = true
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{Kind: ResponseQuit, QuitExitStatus: exitStatus, QuitReturnValue: returnValue})
	}
}

func (c *Core) handleMILine(line string) {
	rec, err := mi.ParseLine(line)
	if err != nil {
		if c.logger != nil {
			c.logger.Warnw("mi parse error", "line", line, "err", err)
		}
		return
	}

	switch rec.Kind {
	case mi.RecordStreamConsole:
		c.streamLines = append(c.streamLines, rec.Stream)
		return
	case mi.RecordResult:
		// handled below
	default:
		return
	}

	switch c.cmdState {
	case CommandInfoBreakpoints:
		c.handleInfoBreakpointsResult(rec)
	case CommandInfoSources:
		c.handleInfoSourcesResult(rec)
	case CommandInfoSource:
		c.handleInfoSourceResult(rec)
	case CommandInfoFrame:
		c.handleInfoFrameResult(rec)
	case CommandComplete:
		c.handleCompleteResult(rec)
	case CommandDisassemblePC:
		c.handleDisassemblePCResult(rec)
	case CommandDisassembleFunc:
		c.handleDisassembleFuncResult(rec)
	case CommandDataDisassembleModeQuery:
		c.handleDisassembleModeProbeResult(rec)
	}
}
