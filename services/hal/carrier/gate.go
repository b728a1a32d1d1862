package carrier

import (
	"sync"

	"camremote-go/services/hal/halcore"
)

// Gate owns the process-wide interrupt-enable flag. Every subsystem that
// needs interrupts holds it between Acquire and Release; the flag is set on
// the first Acquire and cleared when the last holder releases.
type Gate struct {
	mu      sync.Mutex
	irq     halcore.IRQController
	holders int
}

func NewGate(irq halcore.IRQController) *Gate { return &Gate{irq: irq} }

func (g *Gate) Acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holders == 0 {
		g.irq.MasterEnable()
	}
	g.holders++
}

// Release is a no-op when nobody holds the gate.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.holders == 0 {
		return
	}
	g.holders--
	if g.holders == 0 {
		g.irq.MasterDisable()
	}
}

func (g *Gate) Holders() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holders
}
