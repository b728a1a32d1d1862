//go:build !rp2040

package indicator

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
	"camremote-go/services/hal/platform"
	"camremote-go/services/hal/platform/boards"
	"camremote-go/types"
)

type rig struct {
	sim   *platform.Sim
	seq   *Sequencer
	pins  [3]*platform.FakePin
	steps []types.IndicatorStep
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{sim: platform.NewSim()}
	b := boards.PicoRemote
	pins, err := r.sim.Resources().IndicatorPins(b)
	if err != nil {
		t.Fatalf("IndicatorPins: %v", err)
	}
	for i, n := range []int{b.Red, b.Green, b.Blue} {
		r.pins[i], _ = r.sim.Pins.Get(n)
	}
	r.seq = New(Deps{
		Pins:  pins,
		Delay: r.sim.Mock,
		Pub: halcore.EmitFunc(func(ev types.Event) bool {
			r.steps = append(r.steps, ev.Payload.(types.IndicatorStep))
			return true
		}),
	})
	if err := r.seq.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	r.reset()
	return r
}

func (r *rig) reset() {
	for _, p := range r.pins {
		p.ResetTransitions()
	}
	r.steps = nil
}

func (r *rig) levels() [3]bool {
	return [3]bool{r.pins[0].Get(), r.pins[1].Get(), r.pins[2].Get()}
}

// timed runs f and returns the mock time it consumed.
func (r *rig) timed(f func()) time.Duration {
	start := r.sim.Mock.Now()
	f()
	return r.sim.Mock.Now().Sub(start)
}

func TestSetupDrivesLow(t *testing.T) {
	r := newRig(t)
	for i, p := range r.pins {
		if !p.IsOutput() || p.Get() {
			t.Fatalf("pin %d: output=%v level=%v", i, p.IsOutput(), p.Get())
		}
	}
}

func TestSetupMissingPin(t *testing.T) {
	s := New(Deps{Delay: platform.NewMockDelayer()})
	if err := s.Setup(); errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("Setup = %v", err)
	}
}

func TestPatternDurations(t *testing.T) {
	cases := []struct {
		p    Pattern
		want time.Duration
	}{
		{Shutdown, 0},
		{RecvWaitBlink, 750 * time.Millisecond},
		{RecvSuccess, 0},
		{ShtSetup, 200 * time.Millisecond},
		{IntervalSetup, 0},
		{IntervalShutdown, 350 * time.Millisecond},
		{IntervalCountShots, 100 * time.Millisecond},
		{IntervalCountShotsComplete, 300 * time.Millisecond},
		{IntervalCountTimer, 100 * time.Millisecond},
		{IntervalCountTimerComplete, 300 * time.Millisecond},
	}
	for _, tc := range cases {
		t.Run(tc.p.Name, func(t *testing.T) {
			if got := tc.p.Duration(); got != tc.want {
				t.Fatalf("Duration() = %v, want %v", got, tc.want)
			}
			r := newRig(t)
			if got := r.timed(func() { r.seq.Play(tc.p) }); got != tc.want {
				t.Fatalf("elapsed = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRecvWaitBlinkToggles(t *testing.T) {
	r := newRig(t)
	const n = 5
	for i := 0; i < n; i++ {
		before := r.pins[types.Red].Get()
		if got := r.timed(r.seq.RecvWaitBlink); got < 750*time.Millisecond {
			t.Fatalf("call %d took %v", i, got)
		}
		if r.pins[types.Red].Get() == before {
			t.Fatalf("call %d did not toggle red", i)
		}
	}
	if got := r.pins[types.Red].Transitions(); got != n {
		t.Fatalf("transitions = %d, want %d", got, n)
	}
	if r.pins[types.Green].Transitions()+r.pins[types.Blue].Transitions() != 0 {
		t.Fatal("green or blue moved")
	}
}

func TestRecvWaitBlinkReadsHardwareLevel(t *testing.T) {
	r := newRig(t)
	// Someone else drove red high; the toggle must follow the pin.
	r.pins[types.Red].Set(true)
	r.seq.RecvWaitBlink()
	if r.pins[types.Red].Get() {
		t.Fatal("toggle ignored the current pin level")
	}
}

func TestIntervalShutdownFromHigh(t *testing.T) {
	r := newRig(t)
	r.seq.IntervalSetup()
	r.reset()

	got := r.timed(r.seq.IntervalShutdown)

	if got != 350*time.Millisecond {
		t.Fatalf("elapsed = %v", got)
	}
	if r.pins[types.Red].Get() {
		t.Fatal("red left high")
	}
	if n := r.pins[types.Red].Transitions(); n != 7 {
		t.Fatalf("transitions = %d, want 7", n)
	}
}

func TestIntervalCountShotsForcesAllLow(t *testing.T) {
	r := newRig(t)
	r.pins[types.Red].Set(true)
	r.pins[types.Green].Set(true)
	r.reset()

	r.seq.IntervalCountShots()

	if diff := cmp.Diff([3]bool{}, r.levels()); diff != "" {
		t.Fatalf("levels (-want +got):\n%s", diff)
	}
	if r.pins[types.Blue].Transitions() != 2 {
		t.Fatalf("blue transitions = %d, want a single flash", r.pins[types.Blue].Transitions())
	}
	want := []types.IndicatorStep{
		{Pattern: "interval_count_shots", Color: types.Red},
		{Pattern: "interval_count_shots", Color: types.Green},
		{Pattern: "interval_count_shots", Color: types.Blue},
		{Pattern: "interval_count_shots", Color: types.Blue, On: true, HoldMs: 50},
		{Pattern: "interval_count_shots", Color: types.Blue, HoldMs: 50},
	}
	if diff := cmp.Diff(want, r.steps); diff != "" {
		t.Fatalf("steps (-want +got):\n%s", diff)
	}
}

func TestSteadyStates(t *testing.T) {
	r := newRig(t)
	r.pins[types.Red].Set(true)
	r.seq.RecvSuccess()
	if diff := cmp.Diff([3]bool{false, true, false}, r.levels()); diff != "" {
		t.Fatalf("recv_success (-want +got):\n%s", diff)
	}
	r.seq.Shutdown()
	if diff := cmp.Diff([3]bool{}, r.levels()); diff != "" {
		t.Fatalf("shutdown (-want +got):\n%s", diff)
	}
}

func TestShtSetupTrace(t *testing.T) {
	r := newRig(t)
	r.seq.ShtSetup()
	var got []bool
	for _, s := range r.steps {
		if s.Color != types.Blue {
			t.Fatalf("unexpected color %v", s.Color)
		}
		got = append(got, s.On)
	}
	if diff := cmp.Diff([]bool{true, false, true, false}, got); diff != "" {
		t.Fatalf("trace (-want +got):\n%s", diff)
	}
	if r.pins[types.Blue].Transitions() != 4 {
		t.Fatalf("transitions = %d", r.pins[types.Blue].Transitions())
	}
}

func TestIntervalTimerScenario(t *testing.T) {
	r := newRig(t)

	r.seq.IntervalSetup()
	if diff := cmp.Diff([3]bool{true, false, false}, r.levels()); diff != "" {
		t.Fatalf("after interval_setup (-want +got):\n%s", diff)
	}

	r.reset()
	d := r.timed(r.seq.IntervalCountTimer)
	if r.pins[types.Green].Get() || r.pins[types.Green].Transitions() != 2 {
		t.Fatalf("count_timer: level=%v transitions=%d", r.pins[types.Green].Get(), r.pins[types.Green].Transitions())
	}
	if r.steps[0].HoldMs != 50 || !r.steps[0].On {
		t.Fatalf("count_timer first step = %+v", r.steps[0])
	}
	if d != 100*time.Millisecond {
		t.Fatalf("count_timer elapsed = %v", d)
	}

	r.reset()
	d = r.timed(r.seq.IntervalCountTimerComplete)
	if r.pins[types.Green].Get() || r.pins[types.Green].Transitions() != 6 {
		t.Fatalf("count_timer_complete: level=%v transitions=%d", r.pins[types.Green].Get(), r.pins[types.Green].Transitions())
	}
	if d != 300*time.Millisecond {
		t.Fatalf("count_timer_complete elapsed = %v", d)
	}
	if !r.pins[types.Red].Get() {
		t.Fatal("red must stay high through the timer patterns")
	}
}

func TestPlayNamed(t *testing.T) {
	r := newRig(t)
	if err := r.seq.PlayNamed("interval_setup"); err != nil {
		t.Fatalf("PlayNamed: %v", err)
	}
	if !r.pins[types.Red].Get() {
		t.Fatal("interval_setup not played")
	}
	if err := r.seq.PlayNamed("disco"); errcode.Of(err) != errcode.UnknownPattern {
		t.Fatalf("PlayNamed(disco) = %v", err)
	}
}

func TestNamesResolve(t *testing.T) {
	names := Names()
	if len(names) != 10 {
		t.Fatalf("len(Names()) = %d", len(names))
	}
	for _, n := range names {
		if p, ok := Lookup(n); !ok || p.Name != n {
			t.Fatalf("Lookup(%q) failed", n)
		}
	}
}

func TestActiveLowPolarity(t *testing.T) {
	sim := platform.NewSim()
	b := boards.PicoRemote
	b.ActiveLow = true
	pins, err := sim.Resources().IndicatorPins(b)
	if err != nil {
		t.Fatal(err)
	}
	s := New(Deps{Pins: pins, Delay: sim.Mock, ActiveLow: true})
	if err := s.Setup(); err != nil {
		t.Fatal(err)
	}
	green, _ := sim.Pins.Get(b.Green)
	if !green.Get() {
		t.Fatal("off must drive an active-low line high")
	}
	s.RecvSuccess()
	if green.Get() {
		t.Fatal("on must drive an active-low line low")
	}
	if info := s.Info().Detail.(types.IndicatorInfo); !info.ActiveLow || info.Green != b.Green {
		t.Fatalf("Info = %+v", info)
	}
}
