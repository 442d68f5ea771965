package console

import "errors"

// ErrBusFault is returned by Step/StepFrame when the CPU accesses a
// bus range with no handler (the $4018-$401F CPU test-mode registers).
// It is fatal: the caller should treat the Console as done.
var ErrBusFault = errors.New("bus fault")

// ErrFrameSinkClosed is returned by StepFrame when the frame sink
// reports it has gone away (ShouldQuit). The shell exits cleanly; this
// is not treated as a crash.
var ErrFrameSinkClosed = errors.New("frame sink closed")

// busFault is panicked from Bus.Read/Write on an unmapped access and
// recovered at the Step boundary, turning it into ErrBusFault. This
// keeps the CPU/PPU hot path free of error returns on every memory
// access while still giving callers a typed, recoverable error instead
// of a raw panic escaping the package.
type busFault struct {
	addr  uint16
	write bool
}
