package tgdb

// CommandState tracks which MI query is currently in flight. At most one is
// non-void between a delivery and the following prompt annotation
// (spec.md §3, §4.4).
type CommandState int

const (
	CommandVoid CommandState = iota
	CommandInfoBreakpoints
	CommandInfoSources
	CommandInfoSource
	CommandInfoFrame
	CommandComplete
	CommandDisassemblePC
	CommandDisassembleFunc
	CommandDataDisassembleModeQuery
)

// InternalState tracks the gdb prompt phase (spec.md §3, §4.4).
type InternalState int

const (
	StateVoid InternalState = iota
	StateAtPrompt
	StateUserAtPrompt
	StatePostPrompt
	StateUserCommand
	StateGuiCommand
	StateInternalCommand
)

// scannerState is the Annotation Scanner's byte-level state (spec.md §4.2),
// named to mirror original_source/lib/tgdb/state_machine.cpp's "enum state".
type scannerState int

const (
	scanData scannerState = iota
	scanNewline
	scanCtrlZ1
	scanAnnotation
	scanNlData
)

// promptCache tracks the last-emitted prompt and the buffer being assembled,
// emitting a change event only when the text differs (spec.md §3, property 2).
type promptCache struct {
	last     string
	building []byte
}

func (p *promptCache) reset() {
	p.building = p.building[:0]
}

func (p *promptCache) append(b byte) {
	p.building = append(p.building, b)
}

// finalize returns the assembled prompt text and whether it differs from
// the previously emitted one; if it differs, last is updated.
func (p *promptCache) finalize() (text string, changed bool) {
	text = string(p.building)
	if text == p.last {
		return text, false
	}
	p.last = text
	return text, true
}
