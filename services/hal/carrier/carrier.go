package carrier

import (
	"sync"
	"sync/atomic"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
	"camremote-go/services/hal/platform/boards"
	"camremote-go/types"
	"camremote-go/x/mathx"
	"camremote-go/x/strx"
	"camremote-go/x/timex"
)

// Default carrier shape: 50% duty, carrier = clock / 4.
const (
	DefaultPeriod = 4
	DefaultOnTime = 2
)

// Config is the one-time channel configuration. It is immutable once the
// timer has been set up.
type Config struct {
	Name      string
	Clock     halcore.ClockSource
	Channel   halcore.Channel
	Pin       int
	Period    uint32
	OnTime    uint32
	Interrupt bool
}

// DefaultConfig drives pin from timer 3 segment A at 187.5 kHz / 4.
func DefaultConfig(pin int) Config {
	return Config{
		Name:      "ir",
		Clock:     halcore.ClockHFRC187k5Hz,
		Channel:   halcore.Channel{Timer: 3, Segment: halcore.SegmentA},
		Pin:       pin,
		Period:    DefaultPeriod,
		OnTime:    DefaultOnTime,
		Interrupt: true,
	}
}

// ConfigFromBoard builds the carrier config for b's IR LED.
func ConfigFromBoard(b boards.Board) (Config, error) {
	clk, ok := b.ClockSource()
	if !ok {
		return Config{}, errcode.Wrap(errcode.InvalidParams, "carrier.config", "clock "+b.Clock)
	}
	c := Config{
		Name:      "ir",
		Clock:     clk,
		Channel:   b.Channel(),
		Pin:       b.IRLED,
		Period:    b.Period,
		OnTime:    b.OnTime,
		Interrupt: true,
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	const op = "carrier.config"
	switch {
	case !c.Channel.Valid():
		return errcode.Wrap(errcode.UnknownChannel, op, "")
	case c.Pin < 0:
		return errcode.Wrap(errcode.UnknownPin, op, "")
	case c.Clock.Hz() == 0:
		return errcode.Wrap(errcode.InvalidParams, op, "clock")
	case c.Period == 0 || c.OnTime == 0 || c.OnTime > c.Period:
		return errcode.Wrap(errcode.InvalidParams, op, "on_time must be in (0, period]")
	}
	return nil
}

// Deps are the collaborators a Timer drives. Dispatcher and Gate are shared
// by everything on the platform.
type Deps struct {
	HAL        halcore.TimerHAL
	IRQ        halcore.IRQController
	System     halcore.System
	Delay      halcore.Delayer
	Dispatcher *Dispatcher
	Gate       *Gate
	Pub        halcore.EventEmitter // optional
}

// Timer generates the IR carrier on one timer channel. The waveform is made
// by hardware; software only gates it and acknowledges the channel's
// periodic interrupt.
type Timer struct {
	cfg Config
	d   Deps

	mu    sync.Mutex // serialises Setup/Shutdown
	ready atomic.Bool
	state atomic.Uint32
	irqs  atomic.Uint64
}

func New(cfg Config, d Deps) *Timer {
	cfg.Name = strx.Coalesce(cfg.Name, "ir")
	if d.Pub == nil {
		d.Pub = halcore.Discard
	}
	return &Timer{cfg: cfg, d: d}
}

// Setup performs the one-time bring-up: claims the channel in the dispatch
// table, then system clocks, output routing, PWM-repeat waveform,
// period/on-time, the channel's interrupt at the peripheral and the
// controller, and finally the global interrupt enable.
// A second call before Shutdown does nothing.
func (t *Timer) Setup() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready.Load() {
		return nil
	}
	if err := t.cfg.Validate(); err != nil {
		return err
	}
	c := t.cfg
	if c.Interrupt {
		if err := t.d.Dispatcher.Register(c.Channel, t.HandleInterrupt); err != nil {
			return &errcode.E{C: errcode.Of(err), Op: "carrier.setup", Err: err}
		}
	}
	if err := t.bringUp(); err != nil {
		if c.Interrupt {
			t.d.Dispatcher.Unregister(c.Channel)
		}
		return err
	}
	if c.Interrupt {
		t.d.HAL.IntEnable(c.Channel)
		t.d.IRQ.Enable(halcore.IRQTimer)
	}
	t.d.Gate.Acquire()
	t.ready.Store(true)
	return nil
}

func (t *Timer) bringUp() error {
	c := t.cfg
	t.d.System.SetSysClockMax()
	t.d.System.LowPowerInit()
	t.d.System.StartXtal()

	if err := t.d.HAL.OutputConfig(c.Channel, c.Pin); err != nil {
		return &errcode.E{C: errcode.Of(err), Op: "carrier.setup", Msg: "output", Err: err}
	}
	fn := halcore.FnPWMRepeat
	if c.Interrupt {
		fn |= halcore.FnIntEnable
	}
	if err := t.d.HAL.Config(c.Channel, fn, c.Clock); err != nil {
		return &errcode.E{C: errcode.Of(err), Op: "carrier.setup", Msg: "config", Err: err}
	}
	if err := t.d.HAL.PeriodSet(c.Channel, c.Period, c.OnTime); err != nil {
		return &errcode.E{C: errcode.Of(err), Op: "carrier.setup", Msg: "period", Err: err}
	}
	return nil
}

// Shutdown stops the carrier and disables the channel's interrupt. The
// controller line is disabled once no channel uses it. Safe in any state.
func (t *Timer) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready.Load() {
		return
	}
	t.Stop()
	c := t.cfg
	if c.Interrupt {
		t.d.HAL.IntDisable(c.Channel)
		t.d.Dispatcher.Unregister(c.Channel)
		if t.d.Dispatcher.Len() == 0 {
			t.d.IRQ.Disable(halcore.IRQTimer)
		}
	}
	t.d.Gate.Release()
	t.ready.Store(false)
}

// Start enables the counter. Idempotent; ignored before Setup.
func (t *Timer) Start() {
	if !t.ready.Load() {
		return
	}
	t.d.HAL.Start(t.cfg.Channel)
	t.setState(types.Running)
}

// Stop disables and zeroes the counter and drops any pending interrupt.
// Idempotent; ignored before Setup.
func (t *Timer) Stop() {
	if !t.ready.Load() {
		return
	}
	t.d.HAL.Stop(t.cfg.Channel)
	t.d.HAL.IntClear(t.cfg.Channel)
	t.setState(types.Idle)
}

// HandleInterrupt acknowledges the channel's periodic event. It runs in
// interrupt context and must clear the pending flag before returning, or
// the line re-enters immediately. It never touches the run state.
func (t *Timer) HandleInterrupt() {
	t.d.HAL.ResetCounter(t.cfg.Channel)
	t.d.HAL.IntClear(t.cfg.Channel)
	t.irqs.Add(1)
}

func (t *Timer) State() types.RunState { return types.RunState(t.state.Load()) }

// Ready reports whether Setup has completed and Shutdown has not run since.
func (t *Timer) Ready() bool { return t.ready.Load() }

// Interrupts returns the number of acknowledged interrupts.
func (t *Timer) Interrupts() uint64 { return t.irqs.Load() }

func (t *Timer) Config() Config { return t.cfg }

func (t *Timer) Info() types.Info {
	c := t.cfg
	return types.Info{
		SchemaVersion: 1,
		Driver:        "ctimer_pwm",
		Detail: types.CarrierInfo{
			Timer:   c.Channel.Timer,
			Segment: c.Channel.Segment.String(),
			Pin:     c.Pin,
			ClockHz: c.Clock.Hz(),
			Period:  c.Period,
			OnTime:  c.OnTime,
			FreqHz:  mathx.RoundDiv(c.Clock.Hz(), c.Period),
			DutyPct: mathx.Percent(c.OnTime, c.Period),
		},
	}
}

func (t *Timer) setState(s types.RunState) {
	if types.RunState(t.state.Swap(uint32(s))) == s {
		return
	}
	t.d.Pub.Emit(types.Event{
		Kind:    types.KindCarrier,
		Name:    t.cfg.Name,
		Payload: types.CarrierValue{State: s},
		TSms:    timex.NowMs(),
	})
}
