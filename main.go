package main

import (
	"context"
	"time"

	"camremote-go/bus"
	"camremote-go/services/hal/platform"
	"camremote-go/services/hal/platform/boards"
	"camremote-go/services/remote"
	"camremote-go/types"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[remote] boot", boards.Selected.Name)

	res := platform.Default()
	r, err := remote.New(res, boards.Selected)
	if err != nil {
		println("[remote] wiring failed:", err.Error())
		return
	}
	if err := r.Setup(); err != nil {
		println("[remote] setup failed:", err.Error())
		return
	}
	defer r.Shutdown()

	ctx := context.Background()
	go logEvents(ctx, r.Hub.Subscribe(bus.Topic{bus.Wildcard}))

	if res.Console == nil {
		println("[remote] no console; idling")
		select {}
	}
	println("[remote] console ready")
	if err := r.Console.Serve(ctx, res.Console, res.Console); err != nil {
		println("[remote] console:", err.Error())
	}
}

func logEvents(ctx context.Context, sub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Channel():
			if !ok {
				return
			}
			switch p := ev.Payload.(type) {
			case types.CarrierValue:
				println("[carrier]", ev.Name, p.State.String())
			case types.IndicatorStep:
				println("[led]", p.Pattern, p.Color.String(), p.On, p.HoldMs)
			}
		}
	}
}
