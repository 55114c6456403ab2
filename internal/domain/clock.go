package domain

import "github.com/jonboulle/clockwork"

// clock stamps prediction events. Tests freeze it via SetClock so published
// payloads are reproducible.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for event timestamps. Pass nil to reset to real time.
// It is not safe to call while predictions are being served.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
