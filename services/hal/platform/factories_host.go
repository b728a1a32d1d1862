// services/hal/platform/factories_host.go
//go:build !rp2040

package platform

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements GPIOPin for host-side tests and the simulator.
// It counts level transitions so tests can observe flashes that leave the
// final level unchanged.
type FakePin struct {
	mu          sync.RWMutex
	number      int
	level       bool
	modeOut     bool
	transitions int
}

func (p *FakePin) ConfigureInput(_ halcore.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.setLocked(initial)
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	p.setLocked(level)
	p.mu.Unlock()
}

func (p *FakePin) setLocked(level bool) {
	if level != p.level {
		p.transitions++
	}
	p.level = level
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Toggle() {
	p.mu.Lock()
	p.setLocked(!p.level)
	p.mu.Unlock()
}

func (p *FakePin) Number() int { return p.number }

// IsOutput reports whether the pin was last configured as an output.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// Transitions returns the number of level changes since creation or the last
// ResetTransitions.
func (p *FakePin) Transitions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.transitions
}

func (p *FakePin) ResetTransitions() {
	p.mu.Lock()
	p.transitions = 0
	p.mu.Unlock()
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
}

func (f *HostPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	p, ok := f.fake(n)
	if !ok {
		return nil, false
	}
	return p, true
}

func (f *HostPinFactory) fake(n int) (*FakePin, bool) {
	if n < 0 {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n}
		f.pins[n] = p
	}
	return p, true
}

// Get exposes the underlying *FakePin for tests.
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

// ----------------------------- Timer (host) ----------------------------------

type simChannel struct {
	configured bool
	pin        *FakePin
	fn         halcore.TimerFn
	clk        halcore.ClockSource
	period     uint32
	onTime     uint32
	enabled    bool
	counter    uint32
}

// SimTimer is a cycle-stepped model of the vendor timer block. Tick advances
// every enabled channel by one input-clock cycle, drives the routed output
// pin (high while counter < on-time) and latches the channel's pending bit
// when the counter wraps.
type SimTimer struct {
	mu      sync.Mutex
	pins    *HostPinFactory
	irq     *SimIRQ
	ch      [halcore.MaxTimers * 2]simChannel
	pending uint32
	intEn   uint32
}

func NewSimTimer(pins *HostPinFactory, irq *SimIRQ) *SimTimer {
	t := &SimTimer{pins: pins, irq: irq}
	irq.SetSource(halcore.IRQTimer, t.asserted)
	return t
}

func (t *SimTimer) slot(ch halcore.Channel) (*simChannel, error) {
	if !ch.Valid() {
		return nil, errcode.UnknownChannel
	}
	return &t.ch[ch.Index()], nil
}

func (t *SimTimer) OutputConfig(ch halcore.Channel, pin int) error {
	p, ok := t.pins.fake(pin)
	if !ok {
		return errcode.UnknownPin
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.slot(ch)
	if err != nil {
		return err
	}
	_ = p.ConfigureOutput(false)
	c.pin = p
	return nil
}

func (t *SimTimer) Config(ch halcore.Channel, fn halcore.TimerFn, clk halcore.ClockSource) error {
	if clk.Hz() == 0 {
		return errcode.InvalidParams
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.slot(ch)
	if err != nil {
		return err
	}
	c.fn, c.clk, c.configured = fn, clk, true
	return nil
}

func (t *SimTimer) PeriodSet(ch halcore.Channel, period, onTime uint32) error {
	if period == 0 || onTime > period {
		return errcode.InvalidParams
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.slot(ch)
	if err != nil {
		return err
	}
	c.period, c.onTime = period, onTime
	return nil
}

func (t *SimTimer) Start(ch halcore.Channel) {
	t.mu.Lock()
	if c, err := t.slot(ch); err == nil {
		c.enabled = true
	}
	t.mu.Unlock()
}

func (t *SimTimer) Stop(ch halcore.Channel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.slot(ch)
	if err != nil {
		return
	}
	c.enabled = false
	c.counter = 0
	if c.pin != nil {
		c.pin.Set(false)
	}
}

func (t *SimTimer) ResetCounter(ch halcore.Channel) {
	t.mu.Lock()
	if c, err := t.slot(ch); err == nil {
		c.counter = 0
	}
	t.mu.Unlock()
}

func (t *SimTimer) Counter(ch halcore.Channel) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, err := t.slot(ch); err == nil {
		return c.counter
	}
	return 0
}

// Enabled reports the raw counter-enable bit.
func (t *SimTimer) Enabled(ch halcore.Channel) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, err := t.slot(ch); err == nil {
		return c.enabled
	}
	return false
}

func (t *SimTimer) IntEnable(ch halcore.Channel) {
	t.mu.Lock()
	t.intEn |= ch.Mask()
	t.mu.Unlock()
}

func (t *SimTimer) IntDisable(ch halcore.Channel) {
	t.mu.Lock()
	t.intEn &^= ch.Mask()
	t.mu.Unlock()
}

func (t *SimTimer) IntClear(ch halcore.Channel) {
	t.mu.Lock()
	t.pending &^= ch.Mask()
	t.mu.Unlock()
}

func (t *SimTimer) IntStatus() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// IntEnabled reports the peripheral interrupt-enable bit for ch.
func (t *SimTimer) IntEnabled(ch halcore.Channel) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intEn&ch.Mask() != 0
}

// Raise latches ch's pending bit as if the counter had wrapped.
func (t *SimTimer) Raise(ch halcore.Channel) {
	t.mu.Lock()
	t.pending |= ch.Mask()
	t.mu.Unlock()
	t.irq.Raise(halcore.IRQTimer)
}

// Tick advances the timer block by n input-clock cycles, delivering the
// timer interrupt after each cycle.
func (t *SimTimer) Tick(n int) {
	for i := 0; i < n; i++ {
		t.mu.Lock()
		for idx := range t.ch {
			c := &t.ch[idx]
			if !c.enabled || c.period == 0 {
				continue
			}
			if c.pin != nil {
				c.pin.Set(c.counter < c.onTime)
			}
			c.counter++
			if c.counter >= c.period {
				c.counter = 0
				if c.fn&halcore.FnIntEnable != 0 {
					t.pending |= 1 << uint(idx)
				}
			}
		}
		t.mu.Unlock()
		t.irq.Raise(halcore.IRQTimer)
	}
}

func (t *SimTimer) asserted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending&t.intEn != 0
}

// ----------------------------- IRQ (host) ------------------------------------

// maxReentry bounds back-to-back deliveries of one raised line. Hitting it
// means the handler left its source asserted.
const maxReentry = 16

// SimIRQ models the interrupt controller. Raise delivers the line's handler
// for as long as the line stays asserted, like a level-triggered NVIC input.
type SimIRQ struct {
	mu        sync.Mutex
	handlers  [halcore.IRQCount]func()
	enabled   [halcore.IRQCount]bool
	sources   [halcore.IRQCount]func() bool
	master    bool
	delivered [halcore.IRQCount]uint64
	storms    uint64
}

func (q *SimIRQ) SetHandler(line halcore.IRQ, h func()) {
	q.mu.Lock()
	q.handlers[line] = h
	q.mu.Unlock()
}

// SetSource installs the "line asserted" probe for line.
func (q *SimIRQ) SetSource(line halcore.IRQ, src func() bool) {
	q.mu.Lock()
	q.sources[line] = src
	q.mu.Unlock()
}

func (q *SimIRQ) Enable(line halcore.IRQ) {
	q.mu.Lock()
	q.enabled[line] = true
	q.mu.Unlock()
}

func (q *SimIRQ) Disable(line halcore.IRQ) {
	q.mu.Lock()
	q.enabled[line] = false
	q.mu.Unlock()
}

func (q *SimIRQ) Enabled(line halcore.IRQ) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enabled[line]
}

func (q *SimIRQ) MasterEnable() {
	q.mu.Lock()
	q.master = true
	q.mu.Unlock()
}

func (q *SimIRQ) MasterDisable() {
	q.mu.Lock()
	q.master = false
	q.mu.Unlock()
}

func (q *SimIRQ) MasterEnabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.master
}

// Raise runs line's handler while the line is asserted and deliverable.
func (q *SimIRQ) Raise(line halcore.IRQ) {
	for n := 0; ; n++ {
		q.mu.Lock()
		h, src := q.handlers[line], q.sources[line]
		live := q.enabled[line] && q.master && h != nil
		q.mu.Unlock()
		if !live || src == nil || !src() {
			return
		}
		if n == maxReentry {
			q.mu.Lock()
			q.storms++
			q.mu.Unlock()
			return
		}
		h()
		q.mu.Lock()
		q.delivered[line]++
		q.mu.Unlock()
	}
}

// Delivered returns how many times line's handler ran.
func (q *SimIRQ) Delivered(line halcore.IRQ) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delivered[line]
}

// Storms returns how many raises hit the re-entry bound.
func (q *SimIRQ) Storms() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.storms
}

// ----------------------------- System (host) ---------------------------------

// SimSystem records bring-up calls in order.
type SimSystem struct {
	mu    sync.Mutex
	calls []string
}

func (s *SimSystem) record(c string) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *SimSystem) SetSysClockMax() { s.record("sysclk_max") }
func (s *SimSystem) LowPowerInit()   { s.record("low_power_init") }
func (s *SimSystem) StartXtal()      { s.record("xtal_start") }

func (s *SimSystem) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ----------------------------- Delay (host) ----------------------------------

// ClockDelayer sleeps on a clock.Clock.
type ClockDelayer struct{ Clock clock.Clock }

func (d ClockDelayer) Delay(dur time.Duration) {
	if dur <= 0 {
		return
	}
	d.Clock.Sleep(dur)
}

// MockDelayer advances a mock clock instead of sleeping, so blocking
// patterns complete instantly while their elapsed time stays measurable.
type MockDelayer struct {
	Clock *clock.Mock

	mu    sync.Mutex
	calls []time.Duration
}

func NewMockDelayer() *MockDelayer { return &MockDelayer{Clock: clock.NewMock()} }

func (d *MockDelayer) Delay(dur time.Duration) {
	d.mu.Lock()
	d.calls = append(d.calls, dur)
	d.mu.Unlock()
	if dur > 0 {
		d.Clock.Add(dur)
	}
}

// Now returns the mock time.
func (d *MockDelayer) Now() time.Time { return d.Clock.Now() }

// Calls returns every requested delay in order.
func (d *MockDelayer) Calls() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.calls...)
}

// ----------------------------- Bundle (host) ---------------------------------

// Sim is the full host platform with concrete handles for tests.
type Sim struct {
	Pins   *HostPinFactory
	Timer  *SimTimer
	IRQ    *SimIRQ
	System *SimSystem
	Mock   *MockDelayer
}

func NewSim() *Sim {
	pins := &HostPinFactory{pins: make(map[int]*FakePin)}
	irq := &SimIRQ{}
	return &Sim{
		Pins:   pins,
		Timer:  NewSimTimer(pins, irq),
		IRQ:    irq,
		System: &SimSystem{},
		Mock:   NewMockDelayer(),
	}
}

// Resources wires the simulated hardware with the mock-clock delayer.
func (s *Sim) Resources() Resources {
	return Resources{
		Pins:   s.Pins,
		Timer:  s.Timer,
		IRQ:    s.IRQ,
		System: s.System,
		Delay:  s.Mock,
	}
}

// RealtimeResources is Resources with wall-clock delays.
func (s *Sim) RealtimeResources() Resources {
	r := s.Resources()
	r.Delay = ClockDelayer{Clock: clock.New()}
	return r
}

// Default returns a simulated platform with wall-clock delays and the
// process's stdin/stdout as the console.
func Default() Resources {
	r := NewSim().RealtimeResources()
	r.Console = struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	return r
}
