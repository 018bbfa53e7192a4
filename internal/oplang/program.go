package oplang

import (
	"atmoseng/internal/config"
	"atmoseng/internal/harperr"
	"atmoseng/internal/operation"
)

// ProgramState is the Program lifecycle state from the concurrency model:
// idle -> running(cursor=k) -> {running(k+1) | terminated_empty | failed | completed}.
type ProgramState int

const (
	StateIdle ProgramState = iota
	StateRunning
	StateCompleted
	StateTerminatedEmpty
	StateFailed
)

// Program is an ordered list of Operations plus an execution cursor and a
// snapshot of global engine options, captured on Begin and written back on
// End so that sequential programs in the same process never observe each
// other's `set` operation side effects.
type Program struct {
	Ops    operation.List
	Cursor int
	State  ProgramState

	snapshot config.Options
	began    bool
}

// Parse tokenizes and parses src into a Program ready to run. Parsing
// performs only syntactic validation; semantic checks are deferred to
// the engine.
func Parse(src string) (*Program, error) {
	tokens, err := NewScanner(src).ScanTokens()
	if err != nil {
		lexErr := err.(*LexError)
		return nil, harperr.ScriptErr(lexErr.Line, lexErr.Column, "%s", lexErr.Message)
	}
	calls, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	ops, err := Build(calls)
	if err != nil {
		return nil, err
	}
	return &Program{Ops: ops, State: StateIdle}, nil
}

// Begin captures the current global options and transitions the program to
// running at its current cursor, so operations already consumed (for
// example by the ingestion optimizer) are not run again. A program with no
// operations goes to "terminated_empty" instead, and one whose cursor is
// already past the last operation goes to "completed".
func (p *Program) Begin() {
	p.snapshot = config.Snapshot()
	p.began = true
	if len(p.Ops) == 0 {
		p.State = StateTerminatedEmpty
		return
	}
	if p.Cursor >= len(p.Ops) {
		p.State = StateCompleted
		return
	}
	p.State = StateRunning
}

// Advance moves the cursor forward by n operations (n >= 1, the fused-run
// length the engine just executed), marking the program completed once the
// list is exhausted.
func (p *Program) Advance(n int) {
	p.Cursor += n
	if p.Cursor >= len(p.Ops) {
		p.State = StateCompleted
	}
}

// Fail marks the program failed. The caller is still expected to call End.
func (p *Program) Fail() { p.State = StateFailed }

// Current returns the operation at the cursor, or nil if none remains.
func (p *Program) Current() operation.Operation {
	if p.Cursor < 0 || p.Cursor >= len(p.Ops) {
		return nil
	}
	return p.Ops[p.Cursor]
}

// Peek returns the operation offset positions ahead of the cursor, or nil
// past the end. Used by the engine's fusion rules to look ahead without
// consuming.
func (p *Program) Peek(offset int) operation.Operation {
	i := p.Cursor + offset
	if i < 0 || i >= len(p.Ops) {
		return nil
	}
	return p.Ops[i]
}

// End restores the options snapshot captured at Begin, regardless of the
// program's terminal state. Calling End without a prior Begin is a no-op.
func (p *Program) End() {
	if !p.began {
		return
	}
	config.Restore(p.snapshot)
	p.began = false
}
