package models

import "time"

// Fixed sizing constants for the pipeline. These mirror the C reference
// implementation's compile-time #defines; here they are typed Go
// constants so callers get static checking instead of preprocessor text
// substitution.
const (
	// WindowMinutes is the width of each symbol's trade sliding window.
	WindowMinutes = 15
	// WindowDuration is WindowMinutes expressed as a time.Duration.
	WindowDuration = WindowMinutes * time.Minute
	// WindowMs is WindowDuration in milliseconds, the unit the window
	// eviction cutoff is computed in.
	WindowMs = int64(WindowDuration / time.Millisecond)
	// WindowCapacity bounds the number of trades held per symbol
	// regardless of how recent they are, guarding against a burst that
	// outpaces the time-based eviction.
	WindowCapacity = 50000

	// MovingAvgPoints is how many trailing VWAP points a correlation
	// search compares.
	MovingAvgPoints = 8
	// MaxLagMinutes is the largest lag offset the correlation search
	// will try.
	MaxLagMinutes = 60
	// VwapHistorySizeMinutes sizes each symbol's VWAP history ring; it
	// must hold enough points to serve the deepest lag search plus one
	// full comparison window.
	VwapHistorySizeMinutes = MaxLagMinutes + MovingAvgPoints

	// RawTradeQueueSize is the capacity of the bounded message ring
	// between ingest and the processor.
	RawTradeQueueSize = 1024
)
