//go:build rp2040

// Command selftest exercises the carrier and every indicator pattern on the
// selected board and prints PASS/FAIL lines on the USB console.
package main

import (
	"time"

	"camremote-go/services/hal/carrier"
	"camremote-go/services/hal/indicator"
	"camremote-go/services/hal/platform"
	"camremote-go/services/hal/platform/boards"
	"camremote-go/services/remote"
	"camremote-go/types"
)

func main() {
	time.Sleep(2 * time.Second)
	println("[selftest] board", boards.Selected.Name)

	r, err := remote.New(platform.Default(), boards.Selected)
	if err != nil {
		println("[selftest] FAIL wiring:", err.Error())
		return
	}
	if err := r.Setup(); err != nil {
		println("[selftest] FAIL setup:", err.Error())
		return
	}

	pass := true
	check := func(name string, ok bool) {
		if ok {
			println("[selftest] PASS", name)
			return
		}
		println("[selftest] FAIL", name)
		pass = false
	}

	info := r.Carrier.Info().Detail.(types.CarrierInfo)
	println("[selftest] carrier", info.FreqHz, "Hz duty", info.DutyPct, "%")

	r.Carrier.Start()
	time.Sleep(100 * time.Millisecond)
	n := r.Carrier.Interrupts()
	check("carrier running", r.Carrier.State() == types.Running)
	check("carrier interrupts", n > 0)

	r.Carrier.Stop()
	time.Sleep(10 * time.Millisecond)
	idle := r.Carrier.Interrupts()
	time.Sleep(100 * time.Millisecond)
	check("carrier quiet when stopped", r.Carrier.Interrupts() == idle)

	err = r.Carrier.SendPairs(
		carrier.Pair{9 * time.Millisecond, 4500 * time.Microsecond},
		carrier.Pair{560 * time.Microsecond, 560 * time.Microsecond},
	)
	check("carrier burst", err == nil && r.Carrier.State() == types.Idle)

	for _, name := range indicator.Names() {
		start := time.Now()
		if err := r.Indicator.PlayNamed(name); err != nil {
			check(name, false)
			continue
		}
		p, _ := indicator.Lookup(name)
		check(name, time.Since(start) >= p.Duration())
	}

	r.Shutdown()
	check("shutdown", r.Gate.Holders() == 0 && !r.Carrier.Ready())

	if pass {
		println("[selftest] ALL PASS")
	} else {
		println("[selftest] FAILURES")
	}
	select {}
}
