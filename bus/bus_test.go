package bus

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"camremote-go/services/hal/halcore"
	"camremote-go/types"
)

var _ halcore.EventEmitter = (*Hub)(nil)

func carrierEv(s types.RunState) types.Event {
	return types.Event{Kind: types.KindCarrier, Name: "ir", Payload: types.CarrierValue{State: s}}
}

func recv(t *testing.T, s *Subscription) types.Event {
	t.Helper()
	select {
	case ev := <-s.Channel():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return types.Event{}
}

func TestExactSubscription(t *testing.T) {
	h := New(4)
	s := h.Subscribe(Topic{"carrier", "ir"})
	other := h.Subscribe(Topic{"indicator", "x"})

	if !h.Emit(carrierEv(types.Running)) {
		t.Fatal("Emit reported no listeners")
	}
	if diff := cmp.Diff(carrierEv(types.Running), recv(t, s)); diff != "" {
		t.Fatalf("event (-want +got):\n%s", diff)
	}
	select {
	case ev := <-other.Channel():
		t.Fatalf("unrelated subscription got %+v", ev)
	default:
	}
}

func TestWildcard(t *testing.T) {
	h := New(4)
	all := h.Subscribe(Topic{Wildcard})
	car := h.Subscribe(Topic{"carrier", Wildcard})

	h.Emit(carrierEv(types.Running))
	h.Emit(types.Event{Kind: types.KindIndicator, Name: "sht_setup"})

	if recv(t, all).Kind != types.KindCarrier || recv(t, all).Kind != types.KindIndicator {
		t.Fatal("root wildcard missed events")
	}
	if recv(t, car).Kind != types.KindCarrier {
		t.Fatal("carrier wildcard missed event")
	}
	select {
	case ev := <-car.Channel():
		t.Fatalf("carrier wildcard got %+v", ev)
	default:
	}
}

func TestRetainedReplay(t *testing.T) {
	h := New(4)
	if h.Emit(carrierEv(types.Running)) {
		t.Fatal("Emit reported listeners on an empty hub")
	}
	ev, ok := h.Retained(Topic{"carrier", "ir"})
	if !ok || ev.Payload.(types.CarrierValue).State != types.Running {
		t.Fatalf("Retained = %+v, %v", ev, ok)
	}
	if recv(t, h.Subscribe(Topic{"carrier", "ir"})).Name != "ir" {
		t.Fatal("exact subscriber missed retained event")
	}
	if recv(t, h.Subscribe(Topic{Wildcard})).Name != "ir" {
		t.Fatal("wildcard subscriber missed retained event")
	}
	if _, ok := h.Retained(Topic{"carrier", "nope"}); ok {
		t.Fatal("unexpected retained event")
	}
}

func TestSlowReaderDropsOldest(t *testing.T) {
	h := New(2)
	s := h.Subscribe(Topic{"carrier", "ir"})
	h.Emit(carrierEv(types.Running))
	h.Emit(carrierEv(types.Idle))
	h.Emit(carrierEv(types.Running))

	got := []types.RunState{
		recv(t, s).Payload.(types.CarrierValue).State,
		recv(t, s).Payload.(types.CarrierValue).State,
	}
	if diff := cmp.Diff([]types.RunState{types.Idle, types.Running}, got); diff != "" {
		t.Fatalf("states (-want +got):\n%s", diff)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New(2)
	s := h.Subscribe(Topic{Wildcard})
	s.Unsubscribe()
	s.Unsubscribe()
	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel still open")
	}
	if h.Emit(carrierEv(types.Idle)) {
		t.Fatal("removed subscription still counted")
	}
}
