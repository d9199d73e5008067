package tgdb

import "fmt"

// renderedCommand is what Submit/deliver need to know about a Request
// before it reaches gdb's stdin: the literal bytes to write, whether it
// goes through the priority queue, and which CommandState it puts the
// correlator into. Grounded on
// original_source/lib/tgdb/annotate-two/commands.cpp's
// commands_create_command, generalized per spec.md §4.6's table.
type renderedCommand struct {
	text     string
	oob      bool
	cmdState CommandState
}

var debuggerCommandWords = map[DebuggerCommandKind]string{
	DebuggerContinue: "continue",
	DebuggerNext:     "next",
	DebuggerStep:     "step",
	DebuggerFinish:   "finish",
	DebuggerStart:    "start",
	DebuggerRun:      "run",
	DebuggerKill:     "kill",
	DebuggerUntil:    "until",
	DebuggerUp:       "up",
	DebuggerDown:     "down",
}

// renderCommand implements spec.md §4.6's rendered-command table. The MI
// queries it renders are prefixed with "server " so they never enter gdb's
// own command history; ConsoleCommand, DebuggerCommand and ModifyBreakpoint
// text is written without that prefix.
func renderCommand(req *Request, supportsS bool) renderedCommand {
	switch req.Kind {
	case RequestConsoleCommand:
		return renderedCommand{text: req.ConsoleText + "\n", cmdState: CommandVoid}

	case RequestDebuggerCommand:
		word := debuggerCommandWords[req.DebuggerKind]
		return renderedCommand{text: word + "\n", cmdState: CommandVoid}

	case RequestModifyBreakpoint:
		if req.BreakAddr != 0 {
			return renderedCommand{
				text:     fmt.Sprintf("break *0x%x\n", req.BreakAddr),
				cmdState: CommandVoid,
			}
		}
		verb := map[BreakpointAction]string{
			BreakpointActionAdd:    "break",
			BreakpointActionTbreak: "tbreak",
			BreakpointActionDelete: "clear",
		}[req.BreakAction]
		return renderedCommand{
			text:     fmt.Sprintf("%s %q:%d\n", verb, req.BreakFile, req.BreakLine),
			cmdState: CommandVoid,
		}

	case RequestInfoSources:
		return renderedCommand{
			text:     "server interpreter-exec mi \"-file-list-exec-source-files\"\n",
			cmdState: CommandInfoSources,
		}

	case RequestCurrentLocation:
		return renderedCommand{
			text:     "server interpreter-exec mi \"-stack-info-frame\"\n",
			cmdState: CommandInfoFrame,
		}

	case RequestComplete:
		return renderedCommand{
			text:     fmt.Sprintf("server interpreter-exec mi \"complete %s\"\n", req.CompleteLine),
			oob:      true,
			cmdState: CommandComplete,
		}

	case RequestDisassemblePC:
		return renderedCommand{
			text:     fmt.Sprintf("server interpreter-exec mi \"x/%di $pc\"\n", req.DisassembleLines),
			cmdState: CommandDisassemblePC,
		}

	case RequestDisassembleFunc:
		switch req.DisassembleMode {
		case DisassembleModeRaw:
			return renderedCommand{
				text:     "server interp mi \"disassemble /r\"\n",
				cmdState: CommandDisassembleFunc,
			}
		case DisassembleModeSource:
			if supportsS {
				return renderedCommand{
					text:     "server interp mi \"disassemble /s\"\n",
					cmdState: CommandDisassembleFunc,
				}
			}
			return renderedCommand{
				text:     "server interp mi \"disassemble\"\n",
				cmdState: CommandDisassembleFunc,
			}
		default:
			return renderedCommand{
				text:     "server interp mi \"disassemble\"\n",
				cmdState: CommandDisassembleFunc,
			}
		}
	}

	return renderedCommand{}
}

const disassembleModeProbeText = "server interpreter-exec mi \"-data-disassemble -s 0 -e 0 -- 4\"\n"

func renderDisassembleModeProbe() renderedCommand {
	return renderedCommand{text: disassembleModeProbeText, oob: true, cmdState: CommandDataDisassembleModeQuery}
}

func renderInfoBreakpoints() renderedCommand {
	return renderedCommand{
		text:     "server interpreter-exec mi \"-break-info\"\n",
		oob:      true,
		cmdState: CommandInfoBreakpoints,
	}
}

func renderStackInfoFrame() renderedCommand {
	return renderedCommand{
		text:     "server interpreter-exec mi \"-stack-info-frame\"\n",
		oob:      true,
		cmdState: CommandInfoFrame,
	}
}

func renderInfoSourceFile() renderedCommand {
	return renderedCommand{
		text:     "server interp mi \"-file-list-exec-source-file\"\n",
		oob:      true,
		cmdState: CommandInfoSource,
	}
}

func renderInferiorTTYSet(slave string, supportsMI bool) renderedCommand {
	if supportsMI {
		return renderedCommand{
			text:     fmt.Sprintf("server interpreter-exec mi \"-inferior-tty-set %s\"\n", slave),
			oob:      true,
			cmdState: CommandVoid,
		}
	}
	return renderedCommand{
		text:     fmt.Sprintf("server tty %s\n", slave),
		oob:      true,
		cmdState: CommandVoid,
	}
}

// stateChangingRequest reports whether a request could plausibly change
// breakpoints or program state, used to decide whether to re-query
// -break-info at the next pre-prompt (spec.md §4.4's "breakpoints
// invalidating events"), grounded on
// original_source/lib/tgdb/annotate-two/commands.cpp's
// commands_user_ran_command, which unconditionally re-queries breakpoints
// after every user-run command.
func stateChangingRequest(kind RequestKind) bool {
	switch kind {
	case RequestConsoleCommand, RequestDebuggerCommand, RequestModifyBreakpoint:
		return true
	default:
		return false
	}
}
