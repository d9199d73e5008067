package mi

import "testing"

// ─── ExtractBreakpoints ─────────────────────────────────────────────────────

func TestExtractBreakpoints_Simple(t *testing.T) {
	rec, err := ParseLine(`^done,BreakpointTable={nr_rows="1",body=[{bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="0x0000000000400526",func="main",file="a.c",fullname="/src/a.c",line="10",times="0",original-location="a.c:10"}}]}`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}

	bps, err := ExtractBreakpoints(rec)
	if err != nil {
		t.Fatalf("ExtractBreakpoints error: %v", err)
	}
	if len(bps) != 1 {
		t.Fatalf("bps = %+v, want 1 entry", bps)
	}
	bp := bps[0]
	if bp.Number != "1" || bp.Func != "main" || bp.Line != 10 || !bp.Enabled {
		t.Errorf("bp = %+v", bp)
	}
	if bp.Multi {
		t.Error("a plain breakpoint must not be marked Multi")
	}
}

func TestExtractBreakpoints_MultipleLocationsFlattened(t *testing.T) {
	rec, err := ParseLine(`^done,BreakpointTable={body=[{bkpt={number="1",type="breakpoint",disp="keep",enabled="y",addr="<MULTIPLE>",times="0",locations=[{number="1.1",enabled="y",addr="0x400526",func="f1",file="a.c",line="1"},{number="1.2",enabled="y",addr="0x400530",func="f2",file="a.c",line="2"}]}}]}`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}

	bps, err := ExtractBreakpoints(rec)
	if err != nil {
		t.Fatalf("ExtractBreakpoints error: %v", err)
	}
	// Parent immediately followed by both children, in order.
	if len(bps) != 3 {
		t.Fatalf("bps = %+v, want 3 entries (parent + 2 children)", bps)
	}
	if !bps[0].Multi || bps[0].Number != "1" {
		t.Errorf("bps[0] = %+v, want multi parent 1", bps[0])
	}
	if bps[1].Number != "1.1" || !bps[1].FromMulti || bps[1].ParentNumber != "1" {
		t.Errorf("bps[1] = %+v", bps[1])
	}
	if bps[2].Number != "1.2" || !bps[2].FromMulti || bps[2].ParentNumber != "1" {
		t.Errorf("bps[2] = %+v", bps[2])
	}
	if len(bps[0].ChildNumbers) != 2 || bps[0].ChildNumbers[0] != "1.1" || bps[0].ChildNumbers[1] != "1.2" {
		t.Errorf("bps[0].ChildNumbers = %v", bps[0].ChildNumbers)
	}
}

func TestExtractBreakpoints_EmptyTable(t *testing.T) {
	rec, err := ParseLine(`^done,BreakpointTable={nr_rows="0"}`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	bps, err := ExtractBreakpoints(rec)
	if err != nil {
		t.Fatalf("ExtractBreakpoints error: %v", err)
	}
	if len(bps) != 0 {
		t.Errorf("bps = %+v, want none", bps)
	}
}

func TestExtractBreakpoints_WrongRecordKind(t *testing.T) {
	rec, _ := ParseLine(`^error,msg="no breakpoints"`)
	if _, err := ExtractBreakpoints(rec); err == nil {
		t.Fatal("expected error for non-^done record")
	}
}

// ─── ExtractSourceFiles ─────────────────────────────────────────────────────

func TestExtractSourceFiles(t *testing.T) {
	rec, err := ParseLine(`^done,files=[{file="a.c",fullname="/src/a.c"},{file="b.c"}]`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	files, err := ExtractSourceFiles(rec)
	if err != nil {
		t.Fatalf("ExtractSourceFiles error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %+v", files)
	}
	if files[0].Preferred() != "/src/a.c" {
		t.Errorf("files[0].Preferred() = %q, want fullname", files[0].Preferred())
	}
	if files[1].Preferred() != "b.c" {
		t.Errorf("files[1].Preferred() = %q, want file (no fullname)", files[1].Preferred())
	}
}

func TestExtractSourceFiles_NoFilesKey(t *testing.T) {
	rec, err := ParseLine(`^done`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	files, err := ExtractSourceFiles(rec)
	if err != nil {
		t.Fatalf("ExtractSourceFiles error: %v", err)
	}
	if files != nil {
		t.Errorf("files = %+v, want nil", files)
	}
}

// ─── ExtractFrame / ExtractSourceFile ───────────────────────────────────────

func TestExtractFrame(t *testing.T) {
	rec, err := ParseLine(`^done,frame={level="0",addr="0x0000000000400526",func="main",file="a.c",fullname="/src/a.c",line="10"}`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	fp, err := ExtractFrame(rec)
	if err != nil {
		t.Fatalf("ExtractFrame error: %v", err)
	}
	if fp.Func != "main" || fp.Line != 10 || fp.Addr != 0x400526 {
		t.Errorf("fp = %+v", fp)
	}
}

func TestExtractFrame_MissingFrame(t *testing.T) {
	rec, _ := ParseLine(`^done`)
	if _, err := ExtractFrame(rec); err == nil {
		t.Fatal("expected error for missing frame")
	}
}

func TestExtractSourceFile(t *testing.T) {
	rec, err := ParseLine(`^done,line="42",file="a.c",fullname="/src/a.c"`)
	if err != nil {
		t.Fatalf("ParseLine error: %v", err)
	}
	fp, err := ExtractSourceFile(rec)
	if err != nil {
		t.Fatalf("ExtractSourceFile error: %v", err)
	}
	if fp.Line != 42 || fp.File != "a.c" || fp.Fullname != "/src/a.c" {
		t.Errorf("fp = %+v", fp)
	}
}

// ─── DisassembleModeSupported ───────────────────────────────────────────────

func TestDisassembleModeSupported(t *testing.T) {
	done, _ := ParseLine(`^done,asm_insns=[]`)
	if !DisassembleModeSupported(done) {
		t.Error("^done should report supported")
	}

	errRec, _ := ParseLine(`^error,msg="Mode 3 is not supported"`)
	if DisassembleModeSupported(errRec) {
		t.Error("^error should report unsupported")
	}
}
