package boards

import (
	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
)

// NoPin marks an unused pin slot.
const NoPin = -1

// Board describes the remote's wiring: indicator lines, IR LED and the timer
// channel that drives it. Pin numbers are plain GPIO numbers; mapping to
// machine.Pin happens in the platform.
type Board struct {
	Name string `toml:"name"`

	// Indicator lines. NeoPixel, when set, replaces the three discrete lines
	// with one addressable RGB pixel.
	Red       int  `toml:"red"`
	Green     int  `toml:"green"`
	Blue      int  `toml:"blue"`
	ActiveLow bool `toml:"active_low"`
	NeoPixel  int  `toml:"neopixel"`

	// IR carrier.
	IRLED   int    `toml:"ir_led"`
	Timer   uint8  `toml:"timer"`
	Segment string `toml:"segment"` // "A", "B" or "AB"
	Clock   string `toml:"clock"`   // see Clocks
	Period  uint32 `toml:"period"`
	OnTime  uint32 `toml:"on_time"`

	// Console UART.
	ConsoleTX int    `toml:"console_tx"`
	ConsoleRX int    `toml:"console_rx"`
	Baud      uint32 `toml:"baud"`
}

// Clocks maps board-file clock names to sources.
var Clocks = map[string]halcore.ClockSource{
	"hfrc_12m":   halcore.ClockHFRC12MHz,
	"hfrc_3m":    halcore.ClockHFRC3MHz,
	"hfrc_187k5": halcore.ClockHFRC187k5Hz,
	"hfrc_47k":   halcore.ClockHFRC47kHz,
	"xt_32k":     halcore.ClockXT32kHz,
}

// ClockSource resolves the Clock name.
func (b Board) ClockSource() (halcore.ClockSource, bool) {
	c, ok := Clocks[b.Clock]
	return c, ok
}

// Channel returns the timer channel driving the IR LED.
func (b Board) Channel() halcore.Channel {
	seg := halcore.SegmentA
	switch b.Segment {
	case "B", "b":
		seg = halcore.SegmentB
	case "AB", "ab":
		seg = halcore.SegmentBoth
	}
	return halcore.Channel{Timer: b.Timer, Segment: seg}
}

// HasNeoPixel reports whether the indicator is an addressable pixel.
func (b Board) HasNeoPixel() bool { return b.NeoPixel > NoPin }

// Validate checks the wiring for obvious mistakes.
func (b Board) Validate() error {
	const op = "boards.validate"
	if !b.HasNeoPixel() {
		if b.Red < 0 || b.Green < 0 || b.Blue < 0 {
			return errcode.Wrap(errcode.UnknownPin, op, "indicator pin")
		}
		if b.Red == b.Green || b.Green == b.Blue || b.Red == b.Blue {
			return errcode.Wrap(errcode.PinInUse, op, "indicator pins overlap")
		}
	}
	if b.IRLED < 0 {
		return errcode.Wrap(errcode.UnknownPin, op, "ir_led")
	}
	if b.IRLED == b.NeoPixel || (!b.HasNeoPixel() && (b.IRLED == b.Red || b.IRLED == b.Green || b.IRLED == b.Blue)) {
		return errcode.Wrap(errcode.PinInUse, op, "ir_led shares an indicator pin")
	}
	if !b.Channel().Valid() {
		return errcode.Wrap(errcode.UnknownChannel, op, "timer")
	}
	if _, ok := b.ClockSource(); !ok {
		return errcode.Wrap(errcode.InvalidParams, op, "clock "+b.Clock)
	}
	if b.Period == 0 || b.OnTime == 0 || b.OnTime > b.Period {
		return errcode.Wrap(errcode.InvalidParams, op, "period/on_time")
	}
	return nil
}
