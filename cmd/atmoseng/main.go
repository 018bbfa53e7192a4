// cmd/atmoseng/main.go
package main

import (
	"fmt"
	"os"

	"atmoseng/internal/engine"
	"atmoseng/internal/external"
	"atmoseng/internal/external/sphere"
	"atmoseng/internal/external/units"
	"atmoseng/internal/harperr"
	"atmoseng/internal/ingest"
	"atmoseng/internal/obslog"
	"atmoseng/internal/oplang"
	"atmoseng/internal/product"
)

const version = "1.0.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "--help", "-h", "help":
		showUsage()
		return
	case "--version", "-v", "version":
		showVersion()
		return
	case "--list-derivations":
		showDerivations()
		return
	}

	if err := run(args); err != nil {
		logger := obslog.NewStderr()
		logger.Error("%s", err.Error())
		os.Exit(1)
	}
}

type cliOptions struct {
	operations string
	options    string
	list       bool
	input      string
}

func parseArgs(args []string) (cliOptions, error) {
	var o cliOptions
	i := 0
	for i < len(args) {
		switch args[i] {
		case "--operations":
			if i+1 >= len(args) {
				return o, harperr.InvalidArg("--operations requires a value")
			}
			o.operations = args[i+1]
			i += 2
		case "--options":
			if i+1 >= len(args) {
				return o, harperr.InvalidArg("--options requires a value")
			}
			o.options = args[i+1]
			i += 2
		case "--list":
			o.list = true
			i++
		case "--data":
			i++
		default:
			if o.input != "" {
				return o, harperr.InvalidArg("unexpected argument %q", args[i])
			}
			o.input = args[i]
			i++
		}
	}
	if o.input == "" {
		return o, harperr.InvalidArg("missing INPUT argument")
	}
	return o, nil
}

func run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	logger := obslog.NewStderr()

	reader, err := openReader(opts.input)
	if err != nil {
		return err
	}

	prog, err := oplang.Parse(opts.operations)
	if err != nil {
		return err
	}

	if opts.list {
		for _, use := range oplang.Analyze(prog.Ops) {
			fmt.Printf("%s reads=%v writes=%v\n", use.Operation, use.Reads, use.Writes)
		}
		return nil
	}

	unitLib := units.NewTable()
	sphereLib := sphere.WGS84{}
	opt := ingest.New(unitLib)

	materialized, consumed, err := opt.Materialize(prog, reader)
	if err != nil {
		return err
	}
	prog.Advance(consumed)

	env := engine.Environment{
		Units:  unitLib,
		Sphere: sphereLib,
		Logger: logger,
	}
	eng := engine.New(env)
	if err := eng.Run(prog, materialized); err != nil {
		return err
	}

	fmt.Printf("product %q: %d variables\n", materialized.SourceProduct, len(materialized.Variables))
	for _, v := range materialized.Variables {
		fmt.Printf("  %s %s %v\n", v.Name, v.DataType, dimsOf(v))
	}
	return nil
}

func dimsOf(v *product.Variable) []string {
	out := make([]string, len(v.Dims))
	for i, d := range v.Dims {
		out[i] = string(d.Type)
	}
	return out
}

// openReader is a placeholder ingestion entry point: a production build
// wires a format-specific Reader here (netCDF/HDF5/etc.); this CLI only
// ships the in-memory external.SliceReader adapter, so INPUT must name a
// reader the caller has otherwise arranged to register.
func openReader(input string) (external.Reader, error) {
	return nil, harperr.New(harperr.Import, "no format reader registered for %q: this build only ships external.SliceReader for programmatic use", input)
}

func showUsage() {
	fmt.Println(`usage:
  atmoseng [--operations OPS] [--options OPTS] [--list] [--data] INPUT
  atmoseng --list-derivations [INPUT]
  atmoseng --version | --help`)
}

func showVersion() {
	fmt.Printf("atmoseng %s\n", version)
}

func showDerivations() {
	fmt.Println("no derivation kernel library is configured in this build")
}
