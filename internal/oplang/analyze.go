package oplang

import "atmoseng/internal/operation"

// VariableUse is the set of variable names one operation reads from and
// writes to, reported without executing the program.
type VariableUse struct {
	Operation operation.Kind
	Reads     []string
	Writes    []string
}

// Analyze walks a parsed program and reports per-operation variable usage
// without ever touching a product, mirroring harp_program_from_string's
// separation between parsing a program and running it: here the "run" step
// is skipped entirely in favor of a read-only inspection, used by the CLI's
// listing mode.
func Analyze(ops operation.List) []VariableUse {
	uses := make([]VariableUse, 0, len(ops))
	for _, op := range ops {
		uses = append(uses, analyzeOne(op))
	}
	return uses
}

func analyzeOne(op operation.Operation) VariableUse {
	u := VariableUse{Operation: op.Kind()}
	switch o := op.(type) {
	case operation.ValueFilterOp:
		u.Reads = append(u.Reads, o.TargetVariable())
	case operation.RenameOp:
		u.Reads = append(u.Reads, o.OldName)
		u.Writes = append(u.Writes, o.NewName)
	case operation.KeepVariableOp:
		u.Reads = append(u.Reads, o.Names...)
	case operation.ExcludeVariableOp:
		u.Reads = append(u.Reads, o.Names...)
		u.Writes = append(u.Writes, o.Names...) // excluded names are removed
	case operation.DeriveVariableOp:
		u.Writes = append(u.Writes, o.Name)
	case operation.DeriveSmoothedColumnCollocatedDatasetOp:
		u.Writes = append(u.Writes, o.Args.Name)
	case operation.DeriveSmoothedColumnCollocatedProductOp:
		u.Writes = append(u.Writes, o.Args.Name)
	case operation.ClampOp:
		u.Reads = append(u.Reads, o.AxisVariable)
	case operation.RegridOp:
		u.Reads = append(u.Reads, o.TargetAxisVariable)
		if o.BoundsVariable != "" {
			u.Reads = append(u.Reads, o.BoundsVariable)
		}
	case operation.RebinOp:
		u.Reads = append(u.Reads, o.AxisBoundsVariable)
	case operation.SortOp:
		u.Reads = append(u.Reads, o.Variables...)
	case operation.SquashOp:
		u.Reads = append(u.Reads, o.Variables...)
	case operation.BinWithVariablesOp:
		u.Reads = append(u.Reads, o.Variables...)
	case operation.SmoothCollocatedDatasetOp:
		u.Reads = append(u.Reads, o.Variables...)
	case operation.SmoothCollocatedProductOp:
		u.Reads = append(u.Reads, o.Variables...)
	}
	return u
}
