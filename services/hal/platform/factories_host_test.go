//go:build !rp2040

package platform

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
	"camremote-go/services/hal/platform/boards"
)

var ch3A = halcore.Channel{Timer: 3, Segment: halcore.SegmentA}

func TestFakePinTransitions(t *testing.T) {
	f := &HostPinFactory{}
	gp, ok := f.ByNumber(4)
	if !ok {
		t.Fatal("ByNumber(4) failed")
	}
	_ = gp.ConfigureOutput(false)
	gp.Set(false) // no change
	gp.Set(true)
	gp.Toggle()
	gp.Toggle()

	p, _ := f.Get(4)
	if !p.IsOutput() {
		t.Fatal("pin not configured as output")
	}
	if got := p.Transitions(); got != 3 {
		t.Fatalf("Transitions() = %d, want 3", got)
	}
	if !p.Get() {
		t.Fatal("expected level high")
	}
	if _, ok := f.ByNumber(-1); ok {
		t.Fatal("negative pin must not resolve")
	}
}

func armChannel(t *testing.T, s *Sim, period, onTime uint32) {
	t.Helper()
	if err := s.Timer.OutputConfig(ch3A, 22); err != nil {
		t.Fatalf("OutputConfig: %v", err)
	}
	if err := s.Timer.Config(ch3A, halcore.FnPWMRepeat|halcore.FnIntEnable, halcore.ClockHFRC187k5Hz); err != nil {
		t.Fatalf("Config: %v", err)
	}
	if err := s.Timer.PeriodSet(ch3A, period, onTime); err != nil {
		t.Fatalf("PeriodSet: %v", err)
	}
}

func TestSimTimerWaveform(t *testing.T) {
	s := NewSim()
	armChannel(t, s, 4, 2)
	out, _ := s.Pins.Get(22)

	var got []bool
	s.Timer.Start(ch3A)
	for i := 0; i < 8; i++ {
		s.Timer.Tick(1)
		got = append(got, out.Get())
	}
	want := []bool{true, true, false, false, true, true, false, false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("waveform mismatch (-want +got):\n%s", diff)
	}
	if s.Timer.IntStatus()&ch3A.Mask() == 0 {
		t.Fatal("expected pending bit after wrap")
	}

	s.Timer.Stop(ch3A)
	if s.Timer.Counter(ch3A) != 0 || out.Get() {
		t.Fatal("stop must zero the counter and drop the output")
	}
	before := out.Transitions()
	s.Timer.Tick(10)
	if out.Transitions() != before {
		t.Fatal("output changed while stopped")
	}
}

func TestSimTimerConfigErrors(t *testing.T) {
	s := NewSim()
	bad := halcore.Channel{Timer: halcore.MaxTimers}
	if err := s.Timer.Config(bad, 0, halcore.ClockHFRC12MHz); errcode.Of(err) != errcode.UnknownChannel {
		t.Fatalf("Config(bad) = %v", err)
	}
	if err := s.Timer.OutputConfig(ch3A, -1); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("OutputConfig(-1) = %v", err)
	}
	if err := s.Timer.PeriodSet(ch3A, 2, 3); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("PeriodSet(2,3) = %v", err)
	}
	if err := s.Timer.Config(ch3A, 0, 0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("Config(clock 0) = %v", err)
	}
}

func TestSimIRQDeliveryAndStorm(t *testing.T) {
	s := NewSim()
	armChannel(t, s, 4, 2)
	s.Timer.IntEnable(ch3A)
	s.IRQ.Enable(halcore.IRQTimer)

	var calls int
	s.IRQ.SetHandler(halcore.IRQTimer, func() { calls++ })

	// Master disabled: nothing is delivered.
	s.Timer.Raise(ch3A)
	if calls != 0 {
		t.Fatalf("delivered with master disabled: %d", calls)
	}

	// Master enabled and the handler never clears: bounded re-entry storm.
	s.IRQ.MasterEnable()
	s.Timer.Raise(ch3A)
	if calls != maxReentry || s.IRQ.Storms() != 1 {
		t.Fatalf("calls = %d storms = %d", calls, s.IRQ.Storms())
	}

	// A handler that acknowledges runs exactly once.
	calls = 0
	s.IRQ.SetHandler(halcore.IRQTimer, func() {
		calls++
		s.Timer.IntClear(ch3A)
	})
	s.Timer.Raise(ch3A)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if s.IRQ.Storms() != 1 {
		t.Fatalf("unexpected extra storm")
	}
}

func TestMockDelayer(t *testing.T) {
	d := NewMockDelayer()
	start := d.Now()
	d.Delay(50 * time.Millisecond)
	d.Delay(0)
	d.Delay(750 * time.Millisecond)
	if got := d.Now().Sub(start); got != 800*time.Millisecond {
		t.Fatalf("elapsed = %v", got)
	}
	want := []time.Duration{50 * time.Millisecond, 0, 750 * time.Millisecond}
	if diff := cmp.Diff(want, d.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemCalls(t *testing.T) {
	s := NewSim()
	s.System.SetSysClockMax()
	s.System.LowPowerInit()
	s.System.StartXtal()
	want := []string{"sysclk_max", "low_power_init", "xtal_start"}
	if diff := cmp.Diff(want, s.System.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestIndicatorPinsActiveLow(t *testing.T) {
	s := NewSim()
	b := boards.PicoRemote
	b.ActiveLow = true
	pins, err := s.Resources().IndicatorPins(b)
	if err != nil {
		t.Fatalf("IndicatorPins: %v", err)
	}
	_ = pins[0].ConfigureOutput(false)
	raw, _ := s.Pins.Get(b.Red)
	if !raw.Get() {
		t.Fatal("logical low on an active-low pin must drive the wire high")
	}
	pins[0].Set(true)
	if raw.Get() || !pins[0].Get() {
		t.Fatal("logical high must read back high and drive the wire low")
	}
}

func TestIndicatorPinsUnknown(t *testing.T) {
	s := NewSim()
	b := boards.PicoRemote
	b.Green = boards.NoPin
	if _, err := s.Resources().IndicatorPins(b); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("err = %v", err)
	}
}
