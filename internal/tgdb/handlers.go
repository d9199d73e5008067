package tgdb

import (
	"strings"

	"github.com/sidkshatriya/tgdb/internal/tgdb/mi"
)

// This file implements the per-CommandState handling of a completed MI
// result record (spec.md §4.3, §4.6), grounded on
// original_source/lib/tgdb/annotate-two/commands.cpp's
// commands_process_* family -- one function per in-flight MI query, run
// when its terminating ^done/^error record arrives.

func (c *Core) handleInfoBreakpointsResult(rec mi.Record) {
	if rec.Class != "done" {
		return
	}
	infos, err := mi.ExtractBreakpoints(rec)
	if err != nil {
		if c.logger != nil {
			c.logger.Debugw("extract breakpoints failed", "err", err)
		}
		return
	}
	c.buildBreakpointsResponse(infos)
}

func (c *Core) buildBreakpointsResponse(infos []mi.BreakpointInfo) {
	arena := make([]Breakpoint, len(infos))
	indexByNumber := make(map[string]int, len(infos))
	for i, info := range infos {
		indexByNumber[info.Number] = i
	}
	for i, info := range infos {
		bp := Breakpoint{
			Number:           info.Number,
			Type:             info.Type,
			Disposition:      dispositionFromString(info.Disp),
			Enabled:          info.Enabled,
			Address:          info.Addr,
			FuncName:         info.Func,
			File:             info.File,
			Fullname:         info.Fullname,
			Line:             info.Line,
			HitCount:         info.HitCount,
			OriginalLocation: info.OriginalLocation,
			Multi:            info.Multi,
			FromMulti:        info.FromMulti,
			Parent:           NoBreakpointRef,
		}
		if info.FromMulti {
			if pi, ok := indexByNumber[info.ParentNumber]; ok {
				bp.Parent = BreakpointRef(pi)
			}
		}
		for _, cn := range info.ChildNumbers {
			if ci, ok := indexByNumber[cn]; ok {
				bp.Children = append(bp.Children, BreakpointRef(ci))
			}
		}
		arena[i] = bp
	}
	c.breakpoints = arena
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{Kind: ResponseUpdateBreakpoints, Breakpoints: arena})
	}
}

func (c *Core) handleInfoSourcesResult(rec mi.Record) {
	if rec.Class != "done" {
		return
	}
	files, err := mi.ExtractSourceFiles(rec)
	if err != nil {
		if c.logger != nil {
			c.logger.Debugw("extract source files failed", "err", err)
		}
		return
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Preferred())
	}
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{Kind: ResponseUpdateSourceFiles, SourceFiles: names})
	}
}

func (c *Core) handleInfoFrameResult(rec mi.Record) {
	if rec.Class != "done" {
		return
	}
	fp, err := mi.ExtractFrame(rec)
	if err != nil {
		if c.logger != nil {
			c.logger.Debugw("extract frame failed", "err", err)
		}
		return
	}
	if fp.File == "" && fp.Fullname == "" {
		// Current frame carries no source info (e.g. no debug symbols for
		// this PC); fall back to -file-list-exec-source-file, per
		// spec.md §4.3's CurrentLocation fallback rule.
		c.enqueueInternal(renderInfoSourceFile(), true)
		return
	}
	c.emitFilePosition(fp)
}

func (c *Core) handleInfoSourceResult(rec mi.Record) {
	if rec.Class != "done" {
		return
	}
	fp, err := mi.ExtractSourceFile(rec)
	if err != nil {
		if c.logger != nil {
			c.logger.Debugw("extract source file failed", "err", err)
		}
		return
	}
	c.emitFilePosition(fp)
}

func (c *Core) emitFilePosition(fp mi.FramePosition) {
	path := fp.Fullname
	if path == "" {
		path = fp.File
	}
	pos := FilePosition{
		Path:          path,
		Line:          fp.Line,
		Address:       fp.Addr,
		FromSharedLib: fp.From,
		Func:          fp.Func,
		HasPath:       path != "",
		HasAddress:    fp.Addr != 0,
	}
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{Kind: ResponseUpdateFilePosition, FilePos: pos})
	}
}

// completionEchoPrefix marks gdb's "server complete" echo under
// interpreter-exec; stream lines starting with it are dropped from the
// completion list rather than reported.
const completionEchoPrefix = "server complete "

func (c *Core) handleCompleteResult(rec mi.Record) {
	lines := c.streamLines
	c.streamLines = nil

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.HasPrefix(l, completionEchoPrefix) {
			continue
		}
		out = append(out, l)
	}
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{Kind: ResponseUpdateCompletions, Completions: out})
	}
}

func (c *Core) handleDisassemblePCResult(rec mi.Record) {
	lines := c.streamLines
	c.streamLines = nil

	minA, maxA, cleaned := disassembleBounds(lines)
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{
			Kind:            ResponseDisassemblePC,
			DisasmStartAddr: minA,
			DisasmEndAddr:   maxA,
			DisasmError:     rec.Class != "done",
			DisasmLines:     cleaned,
		})
	}
}

func (c *Core) handleDisassembleFuncResult(rec mi.Record) {
	lines := c.streamLines
	c.streamLines = nil

	minA, maxA, cleaned := disassembleBounds(lines)
	if c.cb.CommandResponse != nil {
		c.cb.CommandResponse(Response{
			Kind:            ResponseDisassembleFunc,
			DisasmStartAddr: minA,
			DisasmEndAddr:   maxA,
			DisasmError:     rec.Class != "done",
			DisasmLines:     cleaned,
		})
	}
}

func (c *Core) handleDisassembleModeProbeResult(rec mi.Record) {
	c.disassembleSupS = mi.DisassembleModeSupported(rec)
	if req := c.afterProbe; req != nil {
		c.afterProbe = nil
		c.Submit(req)
	}
}

// disassembleBounds strips the "=>" current-instruction marker from each
// disassembly line (replacing it with matching spaces, so columns still
// line up) and tracks the lowest/highest instruction address seen, per
// spec.md §4.3's Disassemble response shape.
func disassembleBounds(lines []string) (minAddr, maxAddr uint64, cleaned []string) {
	cleaned = make([]string, 0, len(lines))
	first := true
	for _, l := range lines {
		line := l
		if strings.HasPrefix(line, "=>") {
			line = "  " + line[2:]
		}
		if addr, ok := leadingHexAddr(line); ok {
			if first || addr < minAddr {
				minAddr = addr
			}
			if first || addr > maxAddr {
				maxAddr = addr
			}
			first = false
		}
		cleaned = append(cleaned, line)
	}
	return minAddr, maxAddr, cleaned
}

// leadingHexAddr extracts a "0x..." address from the start of a trimmed
// disassembly line (e.g. "   0x0000555555555149 <+0>:\tpush   %rbp").
func leadingHexAddr(line string) (uint64, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "0x") {
		return 0, false
	}
	s = s[2:]
	i := 0
	var v uint64
	for i < len(s) {
		c := s[i]
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			goto done
		}
		v = v*16 + d
		i++
	}
done:
	if i == 0 {
		return 0, false
	}
	return v, true
}
