package tgdb

import (
	"bytes"
	"strings"
	"testing"
)

// ─── Core: console command round trip ──────────────────────────────────────

func TestCore_ConsoleCommandRoundTrip(t *testing.T) {
	var written bytes.Buffer
	var consoleReadyCount int
	var responses []Response

	core := NewCore(&written, UiCallbacks{
		ConsoleReady:    func() { consoleReadyCount++ },
		CommandResponse: func(r Response) { responses = append(responses, r) },
	}, nil)

	core.Submit(&Request{Kind: RequestConsoleCommand, ConsoleText: "next"})

	if got := written.String(); got != "next\n" {
		t.Fatalf("written after Submit = %q, want %q", got, "next\n")
	}

	// gdb's reply to a plain console command is just the prompt cycle.
	core.Feed([]byte("\n\x1a\x1apre-prompt\n(gdb) \n\x1a\x1aprompt\n\n\x1a\x1apost-prompt\n"))

	if consoleReadyCount != 1 {
		t.Fatalf("consoleReadyCount = %d, want 1", consoleReadyCount)
	}

	var gotPrompt bool
	for _, r := range responses {
		if r.Kind == ResponseUpdateConsolePrompt && r.PromptText == "(gdb) " {
			gotPrompt = true
		}
	}
	if !gotPrompt {
		t.Errorf("responses = %+v, want a ResponseUpdateConsolePrompt with text %q", responses, "(gdb) ")
	}
}

func TestCore_ConsoleOutputIsForwardedInVoidState(t *testing.T) {
	// Before any command is submitted the core sits in StateVoid, where
	// plain bytes (the inferior's own stdout/stderr sharing the pty, or
	// gdb's own startup banner) are forwarded as console text.
	var written bytes.Buffer
	var console []string

	core := NewCore(&written, UiCallbacks{
		ConsoleOutput: func(text string) { console = append(console, text) },
	}, nil)

	core.Feed([]byte("Starting program: /bin/true "))

	joined := strings.Join(console, "")
	if !strings.Contains(joined, "Starting program") {
		t.Errorf("console output = %q, want it to contain the inferior-exec banner", joined)
	}
}

func TestCore_OutputDuringUserCommandIsDiscarded(t *testing.T) {
	// While a user command is in flight (between delivery and the
	// following pre-prompt annotation) gdb's raw echo of that command is
	// discarded, not forwarded -- matching the teacher protocol's
	// USER_COMMAND data-sink rule.
	var written bytes.Buffer
	var console []string

	core := NewCore(&written, UiCallbacks{
		ConsoleOutput: func(text string) { console = append(console, text) },
	}, nil)

	core.Submit(&Request{Kind: RequestConsoleCommand, ConsoleText: "next"})
	core.Feed([]byte("next\n"))

	if len(console) != 0 {
		t.Errorf("console output = %v, want none while a user command is in flight", console)
	}
}

// ─── Core: internal MI command completion ──────────────────────────────────

func TestCore_InfoSourcesRoundTrip(t *testing.T) {
	var written bytes.Buffer
	var responses []Response

	core := NewCore(&written, UiCallbacks{
		CommandResponse: func(r Response) { responses = append(responses, r) },
	}, nil)

	core.Submit(&Request{Kind: RequestInfoSources})

	wantCmd := "server interpreter-exec mi \"-file-list-exec-source-files\"\n"
	if got := written.String(); got != wantCmd {
		t.Fatalf("written after Submit = %q, want %q", got, wantCmd)
	}

	miLine := `^done,files=[{file="a.c",fullname="/src/a.c"}]`
	core.Feed([]byte(miLine + "\n\n\x1a\x1apre-prompt\n(gdb) \n\x1a\x1aprompt\n\n\x1a\x1apost-prompt\n"))

	var got *Response
	for i := range responses {
		if responses[i].Kind == ResponseUpdateSourceFiles {
			got = &responses[i]
		}
	}
	if got == nil {
		t.Fatalf("responses = %+v, want a ResponseUpdateSourceFiles", responses)
	}
	if len(got.SourceFiles) != 1 || got.SourceFiles[0] != "/src/a.c" {
		t.Errorf("SourceFiles = %v, want [/src/a.c]", got.SourceFiles)
	}
}

// ─── Core: breakpoints invalidation after a state-changing command ─────────

func TestCore_ConsoleCommandTriggersBreakInfoRequery(t *testing.T) {
	var written bytes.Buffer

	core := NewCore(&written, UiCallbacks{}, nil)

	core.Submit(&Request{Kind: RequestConsoleCommand, ConsoleText: "break main"})
	written.Reset()

	// The re-query is queued with priority at pre-prompt but, like any
	// other command, only actually written once the scheduler is re-armed
	// by the following prompt annotation.
	core.Feed([]byte("\n\x1a\x1apre-prompt\n(gdb) \n\x1a\x1aprompt\n"))

	wantCmd := "server interpreter-exec mi \"-break-info\"\n"
	if got := written.String(); got != wantCmd {
		t.Fatalf("written after prompt = %q, want %q", got, wantCmd)
	}
}

// ─── Core: interrupt ────────────────────────────────────────────────────────

func TestCore_InterruptDrainsQueueAndSendsVINTR(t *testing.T) {
	var written bytes.Buffer

	core := NewCore(&written, UiCallbacks{}, nil)

	// First command occupies the scheduler; a second queues behind it.
	core.Submit(&Request{Kind: RequestConsoleCommand, ConsoleText: "continue"})
	core.Submit(&Request{Kind: RequestConsoleCommand, ConsoleText: "next"})

	if core.sched.queueSizeNormal() != 1 {
		t.Fatalf("queueSizeNormal = %d, want 1 before interrupt", core.sched.queueSizeNormal())
	}

	core.Interrupt()

	if core.sched.queueSizeNormal() != 0 {
		t.Errorf("queueSizeNormal = %d, want 0 after interrupt", core.sched.queueSizeNormal())
	}
	if got := written.Bytes(); len(got) == 0 || got[len(got)-1] != 0x03 {
		t.Errorf("written = %v, want it to end with VINTR (0x03)", got)
	}
}

// ─── Core: inferior exit ───────────────────────────────────────────────────

func TestCore_InferiorExitedAnnotation(t *testing.T) {
	var written bytes.Buffer
	var responses []Response

	core := NewCore(&written, UiCallbacks{
		CommandResponse: func(r Response) { responses = append(responses, r) },
	}, nil)

	core.Feed([]byte("\n\x1a\x1aexited 1\n"))

	if len(responses) != 1 || responses[0].Kind != ResponseInferiorExited {
		t.Fatalf("responses = %+v, want one ResponseInferiorExited", responses)
	}
	if responses[0].InferiorExitStatus != 1 {
		t.Errorf("InferiorExitStatus = %d, want 1", responses[0].InferiorExitStatus)
	}
}
