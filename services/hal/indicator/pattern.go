package indicator

import (
	"time"

	"camremote-go/types"
)

// Op is what a step does to its line.
type Op uint8

const (
	OpSet    Op = iota // drive Color to Level
	OpToggle           // read Color, drive the inverse
	OpAllOff           // drive all three lines low
)

// Step is one write followed by its hold.
type Step struct {
	Color types.Color
	Op    Op
	Level bool
	Hold  time.Duration
}

// Pattern is a named, fixed step sequence.
type Pattern struct {
	Name  string
	Steps []Step
}

// Duration is the sum of the pattern's holds.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, s := range p.Steps {
		d += s.Hold
	}
	return d
}

const flash = 50 * time.Millisecond

func on(c types.Color, hold time.Duration) Step {
	return Step{Color: c, Op: OpSet, Level: true, Hold: hold}
}

func off(c types.Color, hold time.Duration) Step {
	return Step{Color: c, Op: OpSet, Hold: hold}
}

// blink returns n on/off flash pairs on c.
func blink(c types.Color, n int) []Step {
	out := make([]Step, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, on(c, flash), off(c, flash))
	}
	return out
}

func seq(parts ...[]Step) []Step {
	var out []Step
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Mode patterns. Transition counts are deliberate and differ between
// patterns; keep them literal.
var (
	Shutdown = Pattern{"shutdown", []Step{
		off(types.Red, 0), off(types.Green, 0), off(types.Blue, 0),
	}}
	RecvWaitBlink = Pattern{"recv_wait_blink", []Step{
		{Color: types.Red, Op: OpToggle, Hold: 750 * time.Millisecond},
	}}
	RecvSuccess = Pattern{"recv_success", []Step{
		off(types.Red, 0), on(types.Green, 0),
	}}
	ShtSetup = Pattern{"sht_setup", blink(types.Blue, 2)}

	IntervalSetup    = Pattern{"interval_setup", []Step{on(types.Red, 0)}}
	IntervalShutdown = Pattern{"interval_shutdown", seq(
		[]Step{off(types.Red, flash)},
		blink(types.Red, 3),
	)}
	IntervalCountShots = Pattern{"interval_count_shots", seq(
		[]Step{{Op: OpAllOff}},
		blink(types.Blue, 1),
	)}
	IntervalCountShotsComplete = Pattern{"interval_count_shots_complete", seq(
		[]Step{off(types.Blue, 0)},
		blink(types.Blue, 3),
	)}
	IntervalCountTimer         = Pattern{"interval_count_timer", blink(types.Green, 1)}
	IntervalCountTimerComplete = Pattern{"interval_count_timer_complete", seq(
		[]Step{off(types.Green, 0)},
		blink(types.Green, 3),
	)}
)

var registry = []Pattern{
	RecvWaitBlink,
	RecvSuccess,
	ShtSetup,
	IntervalSetup,
	IntervalShutdown,
	IntervalCountShots,
	IntervalCountShotsComplete,
	IntervalCountTimer,
	IntervalCountTimerComplete,
	Shutdown,
}

// Lookup finds a pattern by name.
func Lookup(name string) (Pattern, bool) {
	for _, p := range registry {
		if p.Name == name {
			return p, true
		}
	}
	return Pattern{}, false
}

// Names lists the playable patterns in declaration order.
func Names() []string {
	out := make([]string, len(registry))
	for i, p := range registry {
		out[i] = p.Name
	}
	return out
}
