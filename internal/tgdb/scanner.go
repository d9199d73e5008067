package tgdb

// This file implements the annotation scanner (spec.md §4.2), a byte-level
// state machine that splits the gdb pty-master stream into console text,
// annotation names, and prompt markers. It is grounded directly on
// original_source/lib/tgdb/state_machine.cpp's a2_handle_data: the state
// names (scanData/scanNewline/scanCtrlZ1/scanAnnotation/scanNlData) mirror
// that file's DATA/NEW_LINE/CONTROL_Z/ANNOTATION/NL_DATA enum one for one,
// including the "\032 without a second \032" re-emission quirk spec.md §9
// calls out for byte-stream equivalence.

// dataSink receives console-output bytes whose destination depends on the
// correlator's current InternalState (spec.md §4.2's "data sink" routing).
type dataSink interface {
	sinkByte(b byte)
}

// scanner is the annotation scanner. It holds no destination state itself;
// all routing decisions are made by the correlator via the sink and
// dispatch callbacks.
type scanner struct {
	state    scannerState
	annotBuf []byte

	sink     dataSink
	dispatch func(name string)
}

func newScanner(sink dataSink, dispatch func(name string)) *scanner {
	return &scanner{state: scanData, sink: sink, dispatch: dispatch}
}

// feed processes one chunk of bytes read from the gdb pty master. It runs to
// completion of the chunk; there are no yield points mid-parse (spec.md §5).
func (s *scanner) feed(data []byte) {
	for _, b := range data {
		if b == '\r' {
			continue
		}
		switch b {
		case '\n':
			s.onNewline()
		case '\032':
			s.onCtrlZ()
		default:
			s.onOther(b)
		}
	}
}

func (s *scanner) onNewline() {
	switch s.state {
	case scanData:
		s.state = scanNewline
	case scanNewline:
		s.state = scanNewline
		s.sink.sinkByte('\n')
	case scanCtrlZ1:
		s.state = scanData
		s.sink.sinkByte('\n')
		s.sink.sinkByte('\032')
	case scanAnnotation:
		s.state = scanNlData
		s.dispatch(string(s.annotBuf))
		s.annotBuf = s.annotBuf[:0]
	case scanNlData:
		s.state = scanNewline
	}
}

func (s *scanner) onCtrlZ() {
	switch s.state {
	case scanData:
		s.state = scanData
		s.sink.sinkByte('\032')
	case scanNewline:
		s.state = scanCtrlZ1
	case scanNlData:
		s.state = scanCtrlZ1
	case scanCtrlZ1:
		s.state = scanAnnotation
	case scanAnnotation:
		s.annotBuf = append(s.annotBuf, '\032')
	}
}

func (s *scanner) onOther(b byte) {
	switch s.state {
	case scanData:
		s.sink.sinkByte(b)
	case scanNlData:
		s.state = scanData
		s.sink.sinkByte(b)
	case scanNewline:
		s.state = scanData
		s.sink.sinkByte('\n')
		s.sink.sinkByte(b)
	case scanCtrlZ1:
		s.state = scanData
		s.sink.sinkByte('\n')
		s.sink.sinkByte('\032')
		s.sink.sinkByte(b)
	case scanAnnotation:
		s.annotBuf = append(s.annotBuf, b)
	}
}
