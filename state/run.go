package state

import (
	"math/rand"
	"time"
)

// RunIDTimeLayout - Minute granularity, so ids sort in the order runs happened
const RunIDTimeLayout = "20060102-1504"

const runIDLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewRunID - Generates a human-readable run identifier from the time truncated to
// the minute, followed by two random uppercase letters
func NewRunID(now time.Time, rnd *rand.Rand) string {
	suffix := make([]byte, 2)
	for i := range suffix {
		suffix[i] = runIDLetters[rnd.Intn(len(runIDLetters))]
	}
	return now.Truncate(time.Minute).Format(RunIDTimeLayout) + string(suffix)
}
