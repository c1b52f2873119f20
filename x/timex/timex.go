package timex

import (
	"time"

	"blinkcode-go/x/mathx"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns the period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Duration(uint64(time.Second) / uint64(freqHz))
}

// BitsAt returns how long n bit times take at rateHz, rounded up to the
// next nanosecond. rateHz==0 yields 0.
func BitsAt(n uint64, rateHz uint32) time.Duration {
	return time.Duration(mathx.CeilDiv(n*uint64(time.Second), uint64(rateHz)))
}
