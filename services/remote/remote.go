// Package remote assembles the carrier, the indicator and the console on a
// platform.
package remote

import (
	"camremote-go/bus"
	"camremote-go/services/console"
	"camremote-go/services/hal/carrier"
	"camremote-go/services/hal/indicator"
	"camremote-go/services/hal/platform"
	"camremote-go/services/hal/platform/boards"
	"camremote-go/services/heartbeat"
)

type Remote struct {
	Board     boards.Board
	Hub       *bus.Hub
	Gate      *carrier.Gate
	Carrier   *carrier.Timer
	Indicator *indicator.Sequencer
	Wait      *heartbeat.Service
	Console   *console.Console
}

// New wires the components for b on res. Components publish on the returned
// hub; nothing is set up yet.
func New(res platform.Resources, b boards.Board) (*Remote, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	cfg, err := carrier.ConfigFromBoard(b)
	if err != nil {
		return nil, err
	}
	pins, err := res.IndicatorPins(b)
	if err != nil {
		return nil, err
	}
	r := &Remote{Board: b, Hub: bus.New(16), Gate: carrier.NewGate(res.IRQ)}
	r.Carrier = carrier.New(cfg, carrier.Deps{
		HAL:        res.Timer,
		IRQ:        res.IRQ,
		System:     res.System,
		Delay:      res.Delay,
		Dispatcher: carrier.NewDispatcher(res.Timer, res.IRQ),
		Gate:       r.Gate,
		Pub:        r.Hub,
	})
	r.Indicator = indicator.New(indicator.Deps{
		Pins:      pins,
		Delay:     res.Delay,
		Pub:       r.Hub,
		ActiveLow: b.ActiveLow,
	})
	r.Wait = heartbeat.New(r.Indicator, indicator.RecvWaitBlink)
	r.Console = console.New(r.Carrier, r.Indicator, r.Wait)
	return r, nil
}

// Setup brings up the indicator and then the carrier.
func (r *Remote) Setup() error {
	if err := r.Indicator.Setup(); err != nil {
		return err
	}
	return r.Carrier.Setup()
}

// Shutdown stops everything and leaves the indicator dark.
func (r *Remote) Shutdown() {
	r.Wait.Stop()
	r.Carrier.Shutdown()
	r.Indicator.Shutdown()
}
