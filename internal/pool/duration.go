package pool

import "time"

// durationFromMs converts an optional caller-supplied timeout in
// milliseconds to a time.Duration. Zero or negative means unlimited (spec
// §4.3 "If timeoutMs is omitted the execution is unlimited").
func durationFromMs(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
