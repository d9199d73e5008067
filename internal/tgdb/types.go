// Copyright © 2016 Sidharth Kshatriya
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tgdb mediates between a curses-style front end and a child gdb
// process running in --annotate=2 mode. It owns the pty, the annotation and
// MI parsers, the command scheduler, and the typed request/response API.
package tgdb

import "github.com/google/uuid"

// RequestKind identifies the variant of a Request.
type RequestKind int

const (
	RequestConsoleCommand RequestKind = iota
	RequestInfoSources
	RequestCurrentLocation
	RequestDebuggerCommand
	RequestModifyBreakpoint
	RequestComplete
	RequestDisassemblePC
	RequestDisassembleFunc
)

// DebuggerCommandKind enumerates the DebuggerCommand request variants.
type DebuggerCommandKind int

const (
	DebuggerContinue DebuggerCommandKind = iota
	DebuggerNext
	DebuggerStep
	DebuggerFinish
	DebuggerStart
	DebuggerRun
	DebuggerKill
	DebuggerUntil
	DebuggerUp
	DebuggerDown
)

// BreakpointAction enumerates the ModifyBreakpoint request variants.
type BreakpointAction int

const (
	BreakpointActionAdd BreakpointAction = iota
	BreakpointActionTbreak
	BreakpointActionDelete
)

// DisassembleMode enumerates the DisassembleFunc request variants.
type DisassembleMode int

const (
	DisassembleModePlain DisassembleMode = iota
	DisassembleModeSource
	DisassembleModeRaw
)

// Request is a tagged variant sent from the UI to the core. Exactly one of
// the Kind-specific fields below is meaningful for a given Kind.
type Request struct {
	ID   uuid.UUID
	Kind RequestKind

	// ConsoleCommand
	ConsoleText string

	// DebuggerCommand
	DebuggerKind DebuggerCommandKind

	// ModifyBreakpoint
	BreakFile   string
	BreakAddr   uint64 // non-zero selects address form over file/line
	BreakLine   int
	BreakAction BreakpointAction

	// Complete
	CompleteLine string

	// DisassemblePC
	DisassembleLines int

	// DisassembleFunc
	DisassembleMode DisassembleMode

	// Queued reports whether this request was enqueued rather than
	// delivered synchronously. It is derived at submission time by the
	// scheduler and is read-only to callers; see SPEC_FULL.md open
	// question 3.
	Queued bool
}

// ResponseKind identifies the variant of a Response.
type ResponseKind int

const (
	ResponseUpdateBreakpoints ResponseKind = iota
	ResponseUpdateFilePosition
	ResponseUpdateSourceFiles
	ResponseUpdateCompletions
	ResponseDisassembleFunc
	ResponseDisassemblePC
	ResponseUpdateConsolePrompt
	ResponseDebuggerCommandDelivered
	ResponseInferiorExited
	ResponseQuit
)

// Response is a tagged variant delivered from the core to the UI. Response
// data is only valid for the dynamic extent of the CommandResponse callback
// that delivers it; the core does not guarantee its lifetime afterward.
type Response struct {
	Kind ResponseKind

	Breakpoints []Breakpoint
	FilePos     FilePosition
	SourceFiles []string
	Completions []string

	DisasmStartAddr uint64
	DisasmEndAddr   uint64
	DisasmError     bool
	DisasmLines     []string

	PromptText string

	DeliveredText          string
	DeliveredUserInitiated bool

	InferiorExitStatus int

	QuitExitStatus  int
	QuitReturnValue int
}

// Disposition enumerates the breakpoint disposition field gdb reports.
type Disposition int

const (
	DispositionUnknown Disposition = iota
	DispositionKeep
	DispositionDelete
	DispositionDeleteNextStop
	DispositionDisable
)

func dispositionFromString(s string) Disposition {
	switch s {
	case "keep":
		return DispositionKeep
	case "del":
		return DispositionDelete
	case "dstp":
		return DispositionDeleteNextStop
	case "dis":
		return DispositionDisable
	default:
		return DispositionUnknown
	}
}

// BreakpointRef is an index into the Core's breakpoint arena, standing in
// for a pointer to a parent or child breakpoint (SPEC_FULL.md §3, §9).
type BreakpointRef int

// NoBreakpointRef (-1) means "no parent"/"no reference". It is not the zero
// value of BreakpointRef, which is arena index 0.
const NoBreakpointRef BreakpointRef = -1

// Breakpoint mirrors spec.md §3's Breakpoint variant. Exactly one of Multi,
// FromMulti, or neither holds: if Multi, Children is non-empty and each
// child's Parent points back at this breakpoint's arena index; if
// FromMulti, Parent is set.
type Breakpoint struct {
	Number      string
	Type        string
	CatchType   string
	Disposition Disposition
	Enabled     bool

	// Address holds the literal hex address string, "<MULTIPLE>",
	// "<PENDING>", or "" when unknown.
	Address string

	FuncName string
	File     string
	Fullname string
	Line     int
	HitCount int

	OriginalLocation string

	Multi     bool
	FromMulti bool
	Children  []BreakpointRef
	Parent    BreakpointRef
}

// FilePosition mirrors spec.md §3. At least one of Path or Address is set.
type FilePosition struct {
	Path             string
	Line             int
	Address          uint64
	FromSharedLib    string
	Func             string
	HasPath          bool
	HasAddress       bool
}
