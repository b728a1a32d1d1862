package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// TickPeriod returns the duration of ticks clock cycles at clockHz.
func TickPeriod(clockHz, ticks uint32) time.Duration {
	return time.Duration(PeriodFromHz(clockHz)) * time.Duration(ticks)
}

// Ms converts a millisecond count to a Duration.
func Ms(n uint32) time.Duration { return time.Duration(n) * time.Millisecond }
