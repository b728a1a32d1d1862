//go:build !rp2040

package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"camremote-go/bus"
	"camremote-go/errcode"
	"camremote-go/services/hal/halcore"
	"camremote-go/services/hal/platform"
	"camremote-go/services/hal/platform/boards"
	"camremote-go/services/remote"
	"camremote-go/types"
)

type options struct {
	Board     string
	BoardFile string
	Script    string
	Tick      time.Duration
	Cycles    int
	Fast      bool
	LogLevel  string
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func loadBoard(o options) (boards.Board, error) {
	b, ok := boards.Known[o.Board]
	if !ok {
		return boards.Board{}, errcode.Wrap(errcode.InvalidParams, "remote-sim", "unknown board "+o.Board)
	}
	if o.BoardFile == "" {
		return b, b.Validate()
	}
	return boards.LoadFile(o.BoardFile, b)
}

// run serves console commands from in until it is exhausted or ctx ends.
func run(ctx context.Context, o options, in io.Reader, out io.Writer, log *slog.Logger) error {
	b, err := loadBoard(o)
	if err != nil {
		return err
	}
	sim := platform.NewSim()
	res := sim.RealtimeResources()
	if o.Fast {
		res = sim.Resources()
	}
	r, err := remote.New(res, b)
	if err != nil {
		return err
	}
	log.Info("board", "name", b.Name, "ir_led", b.IRLED, "timer", b.Timer, "segment", b.Segment, "clock", b.Clock)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	sub := r.Hub.Subscribe(bus.Topic{bus.Wildcard})
	wg.Add(1)
	go func() {
		defer wg.Done()
		logEvents(ctx, sub, log)
	}()

	if o.Tick > 0 && o.Cycles > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickLoop(ctx, sim.Timer, o.Tick, o.Cycles)
		}()
	}

	err = r.Console.Serve(ctx, in, out)
	r.Shutdown()
	log.Info("done",
		"interrupts", r.Carrier.Interrupts(),
		"irq_delivered", sim.IRQ.Delivered(halcore.IRQTimer),
		"irq_storms", sim.IRQ.Storms(),
	)
	if err == context.Canceled {
		return nil
	}
	return err
}

func tickLoop(ctx context.Context, t *platform.SimTimer, every time.Duration, cycles int) {
	tk := time.NewTicker(every)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.Tick(cycles)
		}
	}
}

func logEvents(ctx context.Context, sub *bus.Subscription, log *slog.Logger) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Channel():
			if !ok {
				return
			}
			logEvent(log, ev)
		}
	}
}

func logEvent(log *slog.Logger, ev types.Event) {
	switch p := ev.Payload.(type) {
	case types.CarrierValue:
		log.Info("carrier", "name", ev.Name, "state", p.State.String())
	case types.IndicatorStep:
		log.Debug("indicator", "pattern", p.Pattern, "color", p.Color.String(), "on", p.On, "hold_ms", p.HoldMs)
	default:
		log.Debug("event", "kind", string(ev.Kind), "name", ev.Name)
	}
}
