package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms is a free-running millisecond tick counter, like the ticks_ms of a
// microcontroller. It wraps at 2^32; compare ticks only through Elapsed and
// Reached, never with < or >.
type Ms uint32

var boot = time.Now()

// Ticks returns the milliseconds elapsed since process start, truncated to Ms.
func Ticks() Ms { return Ms(uint32(time.Since(boot).Milliseconds())) }

// Elapsed returns now-since in milliseconds. Correct across a single wrap.
func Elapsed(now, since Ms) uint32 { return uint32(now - since) }

// Add returns t advanced by d milliseconds (wrapping).
func (t Ms) Add(d uint32) Ms { return t + Ms(d) }

// Reached reports whether now is at or past deadline. Valid while the two
// are less than 2^31 ms (~24.8 days) apart.
func Reached(now, deadline Ms) bool { return int32(uint32(now-deadline)) >= 0 }

// PeriodFromHz returns the period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Second / time.Duration(freqHz)
}
