// services/hal/halcore/types.go
package halcore

import (
	"time"

	"camremote-go/types"
)

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// Delayer blocks the caller for d. On the MCU this is a busy/sleep wait.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a plain function to Delayer.
type DelayFunc func(d time.Duration)

func (f DelayFunc) Delay(d time.Duration) { f(d) }

// ---- Timer abstractions ----

// ClockSource selects the timer input clock.
type ClockSource uint8

const (
	ClockHFRC12MHz ClockSource = iota + 1
	ClockHFRC3MHz
	ClockHFRC187k5Hz
	ClockHFRC47kHz
	ClockXT32kHz
)

// Hz returns the nominal input frequency.
func (c ClockSource) Hz() uint32 {
	switch c {
	case ClockHFRC12MHz:
		return 12_000_000
	case ClockHFRC3MHz:
		return 3_000_000
	case ClockHFRC187k5Hz:
		return 187_500
	case ClockHFRC47kHz:
		return 46_875
	case ClockXT32kHz:
		return 32_768
	default:
		return 0
	}
}

// Segment is one half of a timer, or both halves linked.
type Segment uint8

const (
	SegmentA Segment = iota
	SegmentB
	SegmentBoth
)

func (s Segment) String() string {
	switch s {
	case SegmentA:
		return "A"
	case SegmentB:
		return "B"
	default:
		return "AB"
	}
}

// MaxTimers bounds the timer numbers a Channel may name.
const MaxTimers = 8

// Channel identifies one timer segment.
type Channel struct {
	Timer   uint8
	Segment Segment
}

// Index is the channel's slot in per-channel tables and status masks.
// SegmentBoth shares the A slot.
func (c Channel) Index() int {
	seg := 0
	if c.Segment == SegmentB {
		seg = 1
	}
	return int(c.Timer)*2 + seg
}

// Mask is the channel's bit in the interrupt status word.
func (c Channel) Mask() uint32 { return 1 << uint(c.Index()) }

// Valid reports whether the channel fits the table.
func (c Channel) Valid() bool { return c.Timer < MaxTimers && c.Segment <= SegmentBoth }

// ChannelFromIndex is the inverse of Channel.Index.
func ChannelFromIndex(i int) Channel {
	seg := SegmentA
	if i%2 == 1 {
		seg = SegmentB
	}
	return Channel{Timer: uint8(i / 2), Segment: seg}
}

// TimerFn is the waveform/function word passed to TimerHAL.Config.
type TimerFn uint32

const (
	FnPWMRepeat TimerFn = 1 << iota
	FnIntEnable
)

// TimerHAL is the vendor timer contract. Every call is a register
// transaction that cannot fail once the channel exists; configuration calls
// return errcode.UnknownChannel/UnknownPin for channels or pins the
// platform does not have.
type TimerHAL interface {
	OutputConfig(ch Channel, pin int) error
	Config(ch Channel, fn TimerFn, clk ClockSource) error
	PeriodSet(ch Channel, period, onTime uint32) error

	// Start enables the counter.
	Start(ch Channel)
	// Stop disables the counter and holds it at zero.
	Stop(ch Channel)
	// ResetCounter zeroes the counter without changing enable.
	ResetCounter(ch Channel)
	Counter(ch Channel) uint32

	IntEnable(ch Channel)
	IntDisable(ch Channel)
	IntClear(ch Channel)
	// IntStatus returns the pending bits (Channel.Mask) of every channel.
	IntStatus() uint32
}

// IRQ is an interrupt controller line.
type IRQ uint8

const (
	IRQTimer IRQ = iota // shared by all timer channels
	IRQCount
)

// IRQController models the interrupt controller and the global
// interrupt-enable flag.
type IRQController interface {
	SetHandler(line IRQ, h func())
	Enable(line IRQ)
	Disable(line IRQ)
	Enabled(line IRQ) bool

	MasterEnable()
	MasterDisable()
	MasterEnabled() bool
}

// System covers clock bring-up and the low-power baseline.
type System interface {
	SetSysClockMax()
	LowPowerInit()
	StartXtal()
}

// ---- Events ----

// EventEmitter tries to hand an Event to the host. It must be non-blocking;
// false indicates a drop.
type EventEmitter interface {
	Emit(ev types.Event) bool
}

// EmitFunc adapts a function to EventEmitter.
type EmitFunc func(ev types.Event) bool

func (f EmitFunc) Emit(ev types.Event) bool { return f(ev) }

// Discard drops every event.
var Discard EventEmitter = EmitFunc(func(types.Event) bool { return false })
