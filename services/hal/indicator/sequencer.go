package indicator

import (
	"sync"
	"time"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
	"camremote-go/types"
	"camremote-go/x/timex"
)

// Deps are the Sequencer's collaborators. Pins are red, green, blue in that
// order, with polarity already folded in.
type Deps struct {
	Pins      [3]halcore.GPIOPin
	Delay     halcore.Delayer
	Pub       halcore.EventEmitter // optional
	ActiveLow bool                 // reported by Info only
}

// Sequencer plays blink patterns on the RGB indicator. Patterns block for
// their full duration and cannot be cancelled; concurrent callers are
// serialised.
type Sequencer struct {
	mu sync.Mutex
	d  Deps
}

func New(d Deps) *Sequencer {
	if d.Pub == nil {
		d.Pub = halcore.Discard
	}
	return &Sequencer{d: d}
}

// Setup configures the three lines as outputs, initially low.
func (s *Sequencer) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.d.Pins {
		if p == nil {
			return errcode.Wrap(errcode.UnknownPin, "indicator.setup", types.Color(i).String())
		}
		if err := p.ConfigureOutput(false); err != nil {
			return &errcode.E{C: errcode.Of(err), Op: "indicator.setup", Msg: types.Color(i).String(), Err: err}
		}
	}
	return nil
}

func (s *Sequencer) Shutdown()                   { s.Play(Shutdown) }
func (s *Sequencer) RecvWaitBlink()              { s.Play(RecvWaitBlink) }
func (s *Sequencer) RecvSuccess()                { s.Play(RecvSuccess) }
func (s *Sequencer) ShtSetup()                   { s.Play(ShtSetup) }
func (s *Sequencer) IntervalSetup()              { s.Play(IntervalSetup) }
func (s *Sequencer) IntervalShutdown()           { s.Play(IntervalShutdown) }
func (s *Sequencer) IntervalCountShots()         { s.Play(IntervalCountShots) }
func (s *Sequencer) IntervalCountShotsComplete() { s.Play(IntervalCountShotsComplete) }
func (s *Sequencer) IntervalCountTimer()         { s.Play(IntervalCountTimer) }
func (s *Sequencer) IntervalCountTimerComplete() { s.Play(IntervalCountTimerComplete) }

// PlayNamed plays the registered pattern called name.
func (s *Sequencer) PlayNamed(name string) error {
	p, ok := Lookup(name)
	if !ok {
		return errcode.Wrap(errcode.UnknownPattern, "indicator.play", name)
	}
	s.Play(p)
	return nil
}

// Play runs p to completion: each step's write, then its hold.
func (s *Sequencer) Play(p Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range p.Steps {
		switch st.Op {
		case OpAllOff:
			for c := types.Red; c <= types.Blue; c++ {
				s.write(p.Name, c, false, 0)
			}
		case OpToggle:
			// Level comes from the pin, not from a shadow copy.
			s.write(p.Name, st.Color, !s.d.Pins[st.Color].Get(), st.Hold)
		default:
			s.write(p.Name, st.Color, st.Level, st.Hold)
		}
		if st.Hold > 0 {
			s.d.Delay.Delay(st.Hold)
		}
	}
}

func (s *Sequencer) write(pattern string, c types.Color, level bool, hold time.Duration) {
	s.d.Pins[c].Set(level)
	s.d.Pub.Emit(types.Event{
		Kind: types.KindIndicator,
		Name: pattern,
		Payload: types.IndicatorStep{
			Pattern: pattern,
			Color:   c,
			On:      level,
			HoldMs:  uint32(hold / time.Millisecond),
		},
		TSms: timex.NowMs(),
	})
}

// Levels reads back the three lines.
func (s *Sequencer) Levels() (r, g, b bool) {
	return s.d.Pins[types.Red].Get(), s.d.Pins[types.Green].Get(), s.d.Pins[types.Blue].Get()
}

func (s *Sequencer) Info() types.Info {
	num := func(c types.Color) int {
		if p := s.d.Pins[c]; p != nil {
			return p.Number()
		}
		return -1
	}
	return types.Info{
		SchemaVersion: 1,
		Driver:        "gpio_rgb",
		Detail: types.IndicatorInfo{
			Red:       num(types.Red),
			Green:     num(types.Green),
			Blue:      num(types.Blue),
			ActiveLow: s.d.ActiveLow,
		},
	}
}
