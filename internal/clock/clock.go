// Package clock centralizes the two time bases the engine needs: wall
// time for timestamps that leave the process, and monotonic time for
// measuring and scheduling intervals.
package clock

import "time"

// processStart anchors NowMonotonicNs. time.Now() carries a monotonic
// reading alongside its wall-clock one; time.Since keeps using that
// reading when it subtracts two time.Time values, so measuring elapsed
// time against this fixed epoch stays immune to wall-clock steps
// (NTP adjustments, manual clock changes) the way CLOCK_MONOTONIC is.
var processStart = time.Now()

// NowMs returns the current wall-clock time in milliseconds since the
// Unix epoch, the unit every timestamp field in this package uses.
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// NowMonotonicNs returns a monotonic clock reading in nanoseconds,
// suitable only for measuring elapsed intervals, never for display or
// storage as a timestamp.
func NowMonotonicNs() int64 {
	return int64(time.Since(processStart))
}

// MinuteFloorMs truncates a millisecond timestamp down to the start of
// its containing minute.
func MinuteFloorMs(ms int64) int64 {
	const minuteMs = 60_000
	return ms - ms%minuteMs
}

// FormatMinuteISO renders a millisecond timestamp as an ISO-8601 string
// truncated to the minute, e.g. "2025-09-01T14:32:00Z".
func FormatMinuteISO(ms int64) string {
	t := time.UnixMilli(MinuteFloorMs(ms)).UTC()
	return t.Format("2006-01-02T15:04:00Z")
}
