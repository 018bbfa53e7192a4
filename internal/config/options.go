// Package config holds the engine-wide options mutated by the `set`
// operation and restored by a Program's snapshot/restore protocol.
package config

// AFGL86Source selects the auxiliary climatology source for AFGL86-derived
// quantities.
type AFGL86Source string

const (
	AFGL86Enabled  AFGL86Source = "enabled"
	AFGL86Disabled AFGL86Source = "disabled"
	AFGL86USSTD76  AFGL86Source = "usstd76"
)

// OnOff is a generic enabled/disabled switch used by several options.
type OnOff string

const (
	Enabled  OnOff = "enabled"
	Disabled OnOff = "disabled"
)

// UncertaintyMode selects how uncertainty propagates across binning/derivation.
type UncertaintyMode string

const (
	Uncorrelated UncertaintyMode = "uncorrelated"
	Correlated   UncertaintyMode = "correlated"
)

// RegridOutOfBounds selects the extrapolation policy for regridding.
type RegridOutOfBounds string

const (
	RegridNaN         RegridOutOfBounds = "nan"
	RegridEdge        RegridOutOfBounds = "edge"
	RegridExtrapolate RegridOutOfBounds = "extrapolate"
)

// Options is the process-wide, mutable-for-the-duration-of-a-program state
// described in the concurrency & resource model: "on construction the
// current values are captured; on destruction they are restored."
type Options struct {
	AFGL86              AFGL86Source
	CollocationDatetime OnOff
	PropagateUncertainty UncertaintyMode
	RegridOutOfBounds   RegridOutOfBounds
}

// Default returns the engine's default option set.
func Default() Options {
	return Options{
		AFGL86:               AFGL86Enabled,
		CollocationDatetime:  Disabled,
		PropagateUncertainty: Uncorrelated,
		RegridOutOfBounds:    RegridNaN,
	}
}

// Global is the current process-wide option state. A program's `set`
// operations change it through Set; Program's Begin/End pair (see
// internal/oplang and internal/engine) snapshots and restores it, which
// isolates sequential programs in the same process.
var Global = Default()

// Snapshot captures the current global options for later restoration.
func Snapshot() Options { return Global }

// Restore writes back a previously captured snapshot.
func Restore(snap Options) { Global = snap }

// Set applies one `set` operation's (name, value) pair to the global
// options. It returns false if name is not a recognized option.
func Set(name, value string) bool {
	switch name {
	case "afgl86":
		Global.AFGL86 = AFGL86Source(value)
	case "collocation_datetime":
		Global.CollocationDatetime = OnOff(value)
	case "propagate_uncertainty":
		Global.PropagateUncertainty = UncertaintyMode(value)
	case "regrid_out_of_bounds":
		Global.RegridOutOfBounds = RegridOutOfBounds(value)
	default:
		return false
	}
	return true
}

// Valid reports whether name/value is a recognized option pair, used by
// the parser's semantic-adjacent validation in the `set` operation builder.
func Valid(name, value string) bool {
	switch name {
	case "afgl86":
		switch AFGL86Source(value) {
		case AFGL86Enabled, AFGL86Disabled, AFGL86USSTD76:
			return true
		}
	case "collocation_datetime":
		switch OnOff(value) {
		case Enabled, Disabled:
			return true
		}
	case "propagate_uncertainty":
		switch UncertaintyMode(value) {
		case Uncorrelated, Correlated:
			return true
		}
	case "regrid_out_of_bounds":
		switch RegridOutOfBounds(value) {
		case RegridNaN, RegridEdge, RegridExtrapolate:
			return true
		}
	}
	return false
}
