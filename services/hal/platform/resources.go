package platform

import (
	"io"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
	"camremote-go/services/hal/platform/boards"
)

// Resources bundles the HAL collaborators the remote core depends on.
type Resources struct {
	Pins   halcore.PinFactory
	Timer  halcore.TimerHAL
	IRQ    halcore.IRQController
	System halcore.System
	Delay  halcore.Delayer

	// Console carries the command console; nil when the board has none.
	Console io.ReadWriter

	// indicator overrides the pin factory for boards whose indicator is not
	// three discrete GPIOs.
	indicator func(b boards.Board) ([3]halcore.GPIOPin, error)
}

// IndicatorPins returns the red, green and blue lines for b, in that order,
// with active-low polarity already folded in.
func (r Resources) IndicatorPins(b boards.Board) ([3]halcore.GPIOPin, error) {
	if r.indicator != nil && b.HasNeoPixel() {
		return r.indicator(b)
	}
	var out [3]halcore.GPIOPin
	for i, n := range [3]int{b.Red, b.Green, b.Blue} {
		p, ok := r.Pins.ByNumber(n)
		if !ok {
			return out, &errcode.E{C: errcode.UnknownPin, Op: "platform.indicator"}
		}
		if b.ActiveLow {
			p = Inverted(p)
		}
		out[i] = p
	}
	return out, nil
}

// Inverted maps logical levels onto an active-low pin.
func Inverted(p halcore.GPIOPin) halcore.GPIOPin { return invertedPin{p} }

type invertedPin struct{ halcore.GPIOPin }

func (p invertedPin) ConfigureOutput(initial bool) error { return p.GPIOPin.ConfigureOutput(!initial) }
func (p invertedPin) Set(level bool)                     { p.GPIOPin.Set(!level) }
func (p invertedPin) Get() bool                          { return !p.GPIOPin.Get() }
