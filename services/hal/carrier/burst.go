package carrier

import (
	"time"

	"camremote-go/errcode"
)

// Pair is one (mark, space) step: carrier on for Pair[0], off for Pair[1].
type Pair [2]time.Duration

// SendPairs gates the carrier through pairs, blocking for their total
// duration. The carrier is left stopped. Building pairs for a particular
// remote protocol is the caller's business.
func (t *Timer) SendPairs(pairs ...Pair) error {
	if !t.ready.Load() {
		return errcode.Wrap(errcode.NotReady, "carrier.send", "setup first")
	}
	for _, p := range pairs {
		if p[0] > 0 {
			t.Start()
			t.d.Delay.Delay(p[0])
		}
		t.Stop()
		t.d.Delay.Delay(p[1])
	}
	return nil
}
