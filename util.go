package reactor

import "time"

// nowMilli returns a monotonic-ish wall-clock millisecond timestamp,
// the Go stand-in for handy's util::timeMilli.
func nowMilli() int64 {
	return time.Now().UnixMilli()
}

// nowSeconds is the second-granularity clock idle tracking runs on.
func nowSeconds() int64 {
	return nowMilli() / 1000
}
