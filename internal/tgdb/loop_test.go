package tgdb

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"testing"
	"time"
)

// ─── loop ─────────────────────────────────────────────────────────────────

func newLoopTestCore(written *bytes.Buffer, responses *[]Response) *Core {
	return NewCore(written, UiCallbacks{
		CommandResponse: func(resp Response) { *responses = append(*responses, resp) },
	}, nil)
}

func TestLoop_IOFailureEmitsQuit(t *testing.T) {
	var written bytes.Buffer
	var responses []Response
	core := newLoopTestCore(&written, &responses)

	r, w := io.Pipe()
	loop := NewLoop(core, r, nil)

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	w.Close() // EOF on the gdb reader

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after gdb-fd EOF")
	}

	if len(responses) != 1 || responses[0].Kind != ResponseQuit {
		t.Fatalf("responses = %+v, want a single Quit", responses)
	}
	if responses[0].QuitExitStatus != -1 || responses[0].QuitReturnValue != 0 {
		t.Errorf("Quit = %+v, want {-1, 0}", responses[0])
	}
}

func TestLoop_SubmitRoutesThroughDispatcher(t *testing.T) {
	var written bytes.Buffer
	var responses []Response
	core := newLoopTestCore(&written, &responses)

	r, w := io.Pipe()
	defer w.Close()
	loop := NewLoop(core, r, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	loop.Submit(&Request{Kind: RequestConsoleCommand, ConsoleText: "next"})

	deadline := time.After(2 * time.Second)
	for written.Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("submitted request was never written to gdb's stdin")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := written.String(); got != "next\n" {
		t.Errorf("written = %q, want %q", got, "next\n")
	}

	cancel()
	<-done
}

// ─── Core.ChildTerminated / Core.IOFailure ─────────────────────────────────

func TestCore_ChildTerminatedNormalExit(t *testing.T) {
	var written bytes.Buffer
	var responses []Response
	core := newLoopTestCore(&written, &responses)

	cmd := exec.Command("sh", "-c", "exit 3")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting test child: %v", err)
	}
	sup := &PTYSupervisor{cmd: cmd}

	core.ChildTerminated(sup)

	if len(responses) != 1 || responses[0].Kind != ResponseQuit {
		t.Fatalf("responses = %+v, want a single Quit", responses)
	}
	if responses[0].QuitExitStatus != 0 || responses[0].QuitReturnValue != 3 {
		t.Errorf("Quit = %+v, want {0, 3}", responses[0])
	}
}

func TestCore_ChildTerminatedAbnormalExit(t *testing.T) {
	var written bytes.Buffer
	var responses []Response
	core := newLoopTestCore(&written, &responses)

	cmd := exec.Command("sh", "-c", "kill -KILL $$; sleep 5")
	if err := cmd.Start(); err != nil {
		t.Fatalf("starting test child: %v", err)
	}
	sup := &PTYSupervisor{cmd: cmd}

	core.ChildTerminated(sup)

	if len(responses) != 1 || responses[0].Kind != ResponseQuit {
		t.Fatalf("responses = %+v, want a single Quit", responses)
	}
	if responses[0].QuitExitStatus != -1 || responses[0].QuitReturnValue != 0 {
		t.Errorf("Quit = %+v, want {-1, 0} for a signal-killed child", responses[0])
	}
}

func TestCore_EmitQuitIsIdempotent(t *testing.T) {
	var written bytes.Buffer
	var responses []Response
	core := newLoopTestCore(&written, &responses)

	core.IOFailure()
	core.IOFailure()

	if len(responses) != 1 {
		t.Fatalf("responses = %+v, want exactly one Quit despite two calls", responses)
	}
}
