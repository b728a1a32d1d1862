package carrier

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
)

type entry struct{ h func() }

// Dispatcher fans the shared timer IRQ line out to per-channel handlers,
// indexed by halcore.Channel.Index. Pending channels without a handler are
// acknowledged so the line cannot storm.
type Dispatcher struct {
	timer halcore.TimerHAL

	mu    sync.Mutex // serialises Register/Unregister
	table [halcore.MaxTimers * 2]atomic.Pointer[entry]
	n     int

	spurious atomic.Uint32
}

// NewDispatcher installs the dispatcher as the timer line's handler.
func NewDispatcher(timer halcore.TimerHAL, irq halcore.IRQController) *Dispatcher {
	d := &Dispatcher{timer: timer}
	irq.SetHandler(halcore.IRQTimer, d.ServeIRQ)
	return d
}

func (d *Dispatcher) Register(ch halcore.Channel, h func()) error {
	if !ch.Valid() {
		return errcode.UnknownChannel
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	slot := &d.table[ch.Index()]
	if slot.Load() != nil {
		return errcode.ChannelInUse
	}
	slot.Store(&entry{h: h})
	d.n++
	return nil
}

func (d *Dispatcher) Unregister(ch halcore.Channel) {
	if !ch.Valid() {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.table[ch.Index()].Swap(nil) != nil {
		d.n--
	}
}

// Len returns the number of registered channels.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.n
}

// ServeIRQ runs in interrupt context: no locks, no allocation.
func (d *Dispatcher) ServeIRQ() {
	st := d.timer.IntStatus()
	for st != 0 {
		i := bits.TrailingZeros32(st)
		st &^= 1 << uint(i)
		if i >= len(d.table) {
			continue
		}
		if e := d.table[i].Load(); e != nil {
			e.h()
			continue
		}
		d.timer.IntClear(halcore.ChannelFromIndex(i))
		d.spurious.Add(1)
	}
}

// Spurious counts pending channels acknowledged without a handler.
func (d *Dispatcher) Spurious() uint32 { return d.spurious.Load() }
