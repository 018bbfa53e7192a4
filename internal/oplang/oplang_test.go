package oplang

import (
	"testing"

	"atmoseng/internal/operation"
)

// parseCalls scans and parses src into calls, failing the test on any error.
func parseCalls(t *testing.T, src string) []Call {
	t.Helper()
	tokens, err := NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}
	calls, err := NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return calls
}

func TestScannerTokenizesOperators(t *testing.T) {
	tokens, err := NewScanner(`comparison(pressure >= 100.5[hPa])`).ScanTokens()
	if err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	var types []TokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	want := []TokenType{TokIdent, TokLParen, TokIdent, TokGE, TokFloat, TokLBracket, TokRParen, TokEOF}
	if len(types) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(types), len(want), types)
	}
	for i, tt := range want {
		if types[i] != tt {
			t.Errorf("token %d = %s, want %s", i, types[i], tt)
		}
	}
}

func TestScannerRejectsUnterminatedString(t *testing.T) {
	_, err := NewScanner(`string-comparison(product_class == "MYD`).ScanTokens()
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestParserSplitsOnSemicolons(t *testing.T) {
	calls := parseCalls(t, `keep-variable(latitude,longitude);exclude-variable(flag)`)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Name != "keep-variable" || calls[1].Name != "exclude-variable" {
		t.Fatalf("unexpected call names: %q, %q", calls[0].Name, calls[1].Name)
	}
}

func TestParserTrailingSemicolonTolerated(t *testing.T) {
	calls := parseCalls(t, `keep-variable(latitude);`)
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
}

func TestParserMissingSeparatorIsAnError(t *testing.T) {
	_, err := NewParser(mustTokens(t, `keep-variable(latitude) exclude-variable(flag)`)).Parse()
	if err == nil {
		t.Fatal("expected an error for two calls with no separating ';'")
	}
}

func mustTokens(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := NewScanner(src).ScanTokens()
	if err != nil {
		t.Fatalf("scan %q: %v", src, err)
	}
	return toks
}

func TestBuildComparison(t *testing.T) {
	calls := parseCalls(t, `comparison(pressure >= 100.5[hPa])`)
	ops, err := Build(calls)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(ops))
	}
	cmp, ok := ops[0].(operation.ComparisonOp)
	if !ok {
		t.Fatalf("op is %T, want ComparisonOp", ops[0])
	}
	if cmp.Variable != "pressure" || cmp.Op != ">=" || cmp.Value != 100.5 || cmp.Unit != "hPa" {
		t.Errorf("unexpected comparison op: %+v", cmp)
	}
}

func TestBuildValidRangeRejectsWrongArity(t *testing.T) {
	calls := parseCalls(t, `valid-range(pressure,100.0)`)
	if _, err := Build(calls); err == nil {
		t.Fatal("expected an arity error for valid-range with 2 arguments")
	}
}

func TestBuildUnknownOperationIsAnError(t *testing.T) {
	calls := parseCalls(t, `not-a-real-operation(foo)`)
	if _, err := Build(calls); err == nil {
		t.Fatal("expected an error for an unrecognized operation name")
	}
}

func TestBuildKeepAndExcludeVariable(t *testing.T) {
	calls := parseCalls(t, `keep-variable(latitude,longitude);exclude-variable(flag)`)
	ops, err := Build(calls)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	keep, ok := ops[0].(operation.KeepVariableOp)
	if !ok || len(keep.Names) != 2 || keep.Names[0] != "latitude" || keep.Names[1] != "longitude" {
		t.Errorf("unexpected keep-variable op: %+v", ops[0])
	}
	excl, ok := ops[1].(operation.ExcludeVariableOp)
	if !ok || len(excl.Names) != 1 || excl.Names[0] != "flag" {
		t.Errorf("unexpected exclude-variable op: %+v", ops[1])
	}
}

func TestBuildIndexMembership(t *testing.T) {
	calls := parseCalls(t, `index-membership({time} in 1,2,3)`)
	ops, err := Build(calls)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	im, ok := ops[0].(operation.IndexMembershipOp)
	if !ok {
		t.Fatalf("op is %T, want IndexMembershipOp", ops[0])
	}
	if im.Dimension != "time" || im.Mode != "in" || len(im.Values) != 3 {
		t.Errorf("unexpected index-membership op: %+v", im)
	}
}

func TestProgramLifecycleEmptyProgram(t *testing.T) {
	prog, err := Parse("")
	if err != nil {
		t.Fatalf("parse empty program: %v", err)
	}
	prog.Begin()
	if prog.State != StateTerminatedEmpty {
		t.Errorf("state = %v, want StateTerminatedEmpty", prog.State)
	}
}

func TestProgramLifecycleAdvanceToCompletion(t *testing.T) {
	prog, err := Parse(`keep-variable(latitude);exclude-variable(flag)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog.Begin()
	if prog.State != StateRunning || prog.Cursor != 0 {
		t.Fatalf("after Begin: state=%v cursor=%d", prog.State, prog.Cursor)
	}
	prog.Advance(1)
	if prog.State != StateRunning || prog.Cursor != 1 {
		t.Fatalf("after first Advance: state=%v cursor=%d", prog.State, prog.Cursor)
	}
	prog.Advance(1)
	if prog.State != StateCompleted {
		t.Fatalf("after final Advance: state=%v, want StateCompleted", prog.State)
	}
	prog.End()
}

func TestAnalyzeReportsReadsAndWrites(t *testing.T) {
	prog, err := Parse(`rename(flag,quality_flag)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	uses := Analyze(prog.Ops)
	if len(uses) != 1 {
		t.Fatalf("got %d uses, want 1", len(uses))
	}
	u := uses[0]
	if len(u.Reads) != 1 || u.Reads[0] != "flag" {
		t.Errorf("reads = %v, want [flag]", u.Reads)
	}
	if len(u.Writes) != 1 || u.Writes[0] != "quality_flag" {
		t.Errorf("writes = %v, want [quality_flag]", u.Writes)
	}
}
