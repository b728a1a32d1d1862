// services/hal/platform/factories_rp2040.go
//go:build rp2040

package platform

import (
	"context"
	"device/rp"
	"image/color"
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"time"
	"unsafe"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"github.com/sparques/pwm"
	"tinygo.org/x/drivers/ws2812"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
	"camremote-go/services/hal/platform/boards"
	"camremote-go/x/mathx"
	"camremote-go/x/timex"
)

// -----------------------------------------------------------------------------
// Defaults used on Raspberry Pi Pico (RP2040)
// -----------------------------------------------------------------------------

// Default wires the RP2040 peripherals for boards.Selected.
func Default() Resources {
	b := boards.Selected
	r := Resources{
		Pins:   rp2PinFactory{},
		Timer:  &rp2Timer{},
		IRQ:    &rp2IRQ{},
		System: rp2System{},
		Delay:  halcore.DelayFunc(time.Sleep),
	}
	r.indicator = newPixelPins
	if b.ConsoleTX >= 0 && b.ConsoleRX >= 0 {
		u := uartx.UART0
		_ = u.Configure(uartx.UARTConfig{
			BaudRate: b.Baud,
			TX:       machine.Pin(b.ConsoleTX),
			RX:       machine.Pin(b.ConsoleRX),
		})
		r.Console = &rp2Console{u: u}
	}
	return r
}

// ---- GPIO ----

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	// Constrain to RP2040 user GPIOs (GP0..GP28).
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull halcore.Pull) error {
	var mode machine.PinMode
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }

// Get reads the pad input, which reflects the driven level for outputs.
func (r *rp2Pin) Get() bool { return r.p.Get() }

func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

func (r *rp2Pin) Number() int { return r.n }

// ---- Timer: PWM slices ----
//
// Timer n is PWM slice n; segment A/B is the slice's channel A/B. The slice
// wrap interrupt (PWM_IRQ_WRAP, shared by all slices) is the timer IRQ line.

// pwmSlice overlays one slice's register block (0x14 bytes apart).
type pwmSlice struct {
	CSR volatile.Register32
	DIV volatile.Register32
	CTR volatile.Register32
	CC  volatile.Register32
	TOP volatile.Register32
}

const csrEN = 1 << 0

func sliceRegs(n uint8) *pwmSlice {
	return (*pwmSlice)(unsafe.Pointer(uintptr(unsafe.Pointer(rp.PWM)) + 0x14*uintptr(n)))
}

type rp2Channel struct {
	group  pwm.Group
	pin    machine.Pin
	out    uint8
	fn     halcore.TimerFn
	clk    halcore.ClockSource
	period uint32
	onTime uint32
	duty   uint32
	routed bool
}

type rp2Timer struct {
	ch    [halcore.MaxTimers * 2]rp2Channel
	intEn uint32 // Channel.Mask bits
}

func (t *rp2Timer) slot(ch halcore.Channel) (*rp2Channel, error) {
	if !ch.Valid() {
		return nil, errcode.UnknownChannel
	}
	return &t.ch[ch.Index()], nil
}

func (t *rp2Timer) OutputConfig(ch halcore.Channel, pin int) error {
	c, err := t.slot(ch)
	if err != nil {
		return err
	}
	if pin < 0 || pin > 29 {
		return errcode.UnknownPin
	}
	// GPIO n is hard-wired to slice (n/2)%8, channel n%2.
	wantSeg := halcore.SegmentA
	if pin&1 == 1 {
		wantSeg = halcore.SegmentB
	}
	if uint8((pin>>1)&7) != ch.Timer || (ch.Segment != halcore.SegmentBoth && ch.Segment != wantSeg) {
		return &errcode.E{C: errcode.InvalidParams, Op: "rp2.output_config", Msg: "pin not on channel"}
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinPWM})
	c.pin = p
	c.group = pwm.Get(p)
	c.routed = true
	return nil
}

func (t *rp2Timer) Config(ch halcore.Channel, fn halcore.TimerFn, clk halcore.ClockSource) error {
	c, err := t.slot(ch)
	if err != nil {
		return err
	}
	if clk.Hz() == 0 {
		return errcode.InvalidParams
	}
	c.fn, c.clk = fn, clk
	return nil
}

func (t *rp2Timer) PeriodSet(ch halcore.Channel, period, onTime uint32) error {
	c, err := t.slot(ch)
	if err != nil {
		return err
	}
	if period == 0 || onTime > period {
		return errcode.InvalidParams
	}
	if !c.routed || c.clk == 0 {
		return errcode.NotReady
	}
	c.period, c.onTime = period, onTime
	c.group.Configure(machine.PWMConfig{Period: uint64(timex.TickPeriod(c.clk.Hz(), period))})
	out, err := c.group.Channel(c.pin)
	if err != nil {
		return err
	}
	c.out = out
	c.duty = mathx.RoundDiv(c.group.Top()*onTime, period)

	// Configure leaves the slice running; hold it idle until Start.
	s := sliceRegs(ch.Timer)
	s.CSR.ClearBits(csrEN)
	c.group.Set(c.out, 0)
	s.CTR.Set(0)
	return nil
}

func (t *rp2Timer) Start(ch halcore.Channel) {
	c, err := t.slot(ch)
	if err != nil || !c.routed {
		return
	}
	c.group.Set(c.out, c.duty)
	sliceRegs(ch.Timer).CSR.SetBits(csrEN)
}

// Stop disables the slice and zeroes the compare so the pad rests low.
func (t *rp2Timer) Stop(ch halcore.Channel) {
	c, err := t.slot(ch)
	if err != nil || !c.routed {
		return
	}
	s := sliceRegs(ch.Timer)
	s.CSR.ClearBits(csrEN)
	c.group.Set(c.out, 0)
	s.CTR.Set(0)
}

func (t *rp2Timer) ResetCounter(ch halcore.Channel) {
	if ch.Valid() {
		sliceRegs(ch.Timer).CTR.Set(0)
	}
}

func (t *rp2Timer) Counter(ch halcore.Channel) uint32 {
	if !ch.Valid() {
		return 0
	}
	return sliceRegs(ch.Timer).CTR.Get()
}

func sliceMasks(timer uint8) uint32 {
	return halcore.Channel{Timer: timer, Segment: halcore.SegmentA}.Mask() |
		halcore.Channel{Timer: timer, Segment: halcore.SegmentB}.Mask()
}

func (t *rp2Timer) IntEnable(ch halcore.Channel) {
	if !ch.Valid() {
		return
	}
	t.intEn |= ch.Mask()
	rp.PWM.INTE.SetBits(1 << ch.Timer)
}

func (t *rp2Timer) IntDisable(ch halcore.Channel) {
	if !ch.Valid() {
		return
	}
	t.intEn &^= ch.Mask()
	if t.intEn&sliceMasks(ch.Timer) == 0 {
		rp.PWM.INTE.ClearBits(1 << ch.Timer)
	}
}

// IntClear acknowledges the slice wrap flag (write-one-to-clear).
func (t *rp2Timer) IntClear(ch halcore.Channel) {
	if ch.Valid() {
		rp.PWM.INTR.Set(1 << ch.Timer)
	}
}

// IntStatus widens the per-slice raw flags into Channel.Mask bits. A pending
// slice with no enabled channel reports its A slot so it still gets
// acknowledged.
func (t *rp2Timer) IntStatus() uint32 {
	raw := rp.PWM.INTR.Get()
	var st uint32
	for s := uint8(0); s < halcore.MaxTimers; s++ {
		if raw&(1<<s) == 0 {
			continue
		}
		m := sliceMasks(s) & t.intEn
		if m == 0 {
			m = halcore.Channel{Timer: s, Segment: halcore.SegmentA}.Mask()
		}
		st |= m
	}
	return st
}

// ---- IRQ ----

// timerISR is read from interrupt context; it is written only while the line
// is disabled.
var timerISR func()

type rp2IRQ struct {
	intr      interrupt.Interrupt
	installed bool
	enabled   [halcore.IRQCount]bool
	master    bool
}

func (q *rp2IRQ) install() {
	if q.installed {
		return
	}
	q.intr = interrupt.New(rp.IRQ_PWM_IRQ_WRAP, func(interrupt.Interrupt) {
		if h := timerISR; h != nil {
			h()
		}
	})
	q.installed = true
}

func (q *rp2IRQ) SetHandler(line halcore.IRQ, h func()) {
	if line != halcore.IRQTimer {
		return
	}
	q.install()
	timerISR = h
}

func (q *rp2IRQ) Enable(line halcore.IRQ) {
	if line != halcore.IRQTimer {
		return
	}
	q.install()
	q.enabled[line] = true
	if q.master {
		q.intr.Enable()
	}
}

func (q *rp2IRQ) Disable(line halcore.IRQ) {
	if line != halcore.IRQTimer || !q.installed {
		return
	}
	q.intr.Disable()
	q.enabled[line] = false
}

func (q *rp2IRQ) Enabled(line halcore.IRQ) bool { return line < halcore.IRQCount && q.enabled[line] }

// The TinyGo scheduler needs PRIMASK clear, so the master flag gates the
// lines this controller owns rather than the core-wide mask.
func (q *rp2IRQ) MasterEnable() {
	q.master = true
	if q.installed && q.enabled[halcore.IRQTimer] {
		q.intr.Enable()
	}
}

func (q *rp2IRQ) MasterDisable() {
	q.master = false
	if q.installed {
		q.intr.Disable()
	}
}

func (q *rp2IRQ) MasterEnabled() bool { return q.master }

// ---- System ----

// The TinyGo runtime brings up XOSC, the PLLs and clk_sys at maximum before
// main; these only exist to satisfy the bring-up sequence.
type rp2System struct{}

func (rp2System) SetSysClockMax() {}
func (rp2System) LowPowerInit()   {}
func (rp2System) StartXtal()      {}

// ---- Indicator: WS2812 pixel ----

const pixelLevel = 0x40

type pixel struct {
	dev ws2812.Device
	rgb [3]bool
}

func (px *pixel) flush() {
	c := color.RGBA{A: 0xFF}
	if px.rgb[0] {
		c.R = pixelLevel
	}
	if px.rgb[1] {
		c.G = pixelLevel
	}
	if px.rgb[2] {
		c.B = pixelLevel
	}
	_ = px.dev.WriteColors([]color.RGBA{c})
}

// pixelPin presents one colour of the pixel as a GPIO line. Get returns the
// level last written to the pixel, which is the pixel's only readable state.
type pixelPin struct {
	px  *pixel
	idx int
	n   int
}

func newPixelPins(b boards.Board) ([3]halcore.GPIOPin, error) {
	var out [3]halcore.GPIOPin
	if b.NeoPixel < 0 || b.NeoPixel > 28 {
		return out, errcode.UnknownPin
	}
	p := machine.Pin(b.NeoPixel)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	px := &pixel{dev: ws2812.New(p)}
	for i := range out {
		out[i] = &pixelPin{px: px, idx: i, n: b.NeoPixel}
	}
	return out, nil
}

func (p *pixelPin) ConfigureInput(halcore.Pull) error { return errcode.Unsupported }

func (p *pixelPin) ConfigureOutput(initial bool) error {
	p.Set(initial)
	return nil
}

func (p *pixelPin) Set(level bool) {
	p.px.rgb[p.idx] = level
	p.px.flush()
}

func (p *pixelPin) Get() bool   { return p.px.rgb[p.idx] }
func (p *pixelPin) Toggle()     { p.Set(!p.Get()) }
func (p *pixelPin) Number() int { return p.n }

// ---- Console ----

type rp2Console struct{ u *uartx.UART }

func (c *rp2Console) Read(p []byte) (int, error) {
	return c.u.RecvSomeContext(context.Background(), p)
}

func (c *rp2Console) Write(p []byte) (int, error) { return c.u.Write(p) }
