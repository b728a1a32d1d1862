// Package console is the line-oriented command surface through which an
// external mode controller drives the carrier and the indicator.
//
// One command per line, shell-style quoting, '#' starts a comment. Every
// command answers with one line: "ok[ <detail>]" or "err <code>".
package console

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/shlex"

	"camremote-go/errcode"
	"camremote-go/services/hal/carrier"
	"camremote-go/services/heartbeat"
	"camremote-go/services/hal/indicator"
	"camremote-go/types"
	"camremote-go/x/conv"
	"camremote-go/x/strx"
)

// maxBurstUs bounds a single mark or space.
const maxBurstUs = 1_000_000

const help = "ok carrier setup|start|stop|shutdown|state|info|burst <mark_us> <space_us>... ; led setup|info|list|wait start|stop|state|<pattern> ; help"

type Console struct {
	ir   *carrier.Timer
	led  *indicator.Sequencer
	wait *heartbeat.Service // optional
	ctx  context.Context
}

// New builds a console. wait may be nil, in which case "led wait" reports
// unsupported.
func New(ir *carrier.Timer, led *indicator.Sequencer, wait *heartbeat.Service) *Console {
	return &Console{ir: ir, led: led, wait: wait, ctx: context.Background()}
}

// Exec runs one command line and returns its reply. Blank and comment-only
// lines return "".
func (c *Console) Exec(line string) string {
	args, err := shlex.Split(strx.StripComment(line))
	if err != nil {
		return fail(errcode.InvalidPayload)
	}
	if len(args) == 0 {
		return ""
	}
	switch args[0] {
	case "help", "?":
		return help
	case "carrier", "ir":
		return c.carrierCmd(args[1:])
	case "led":
		return c.ledCmd(args[1:])
	default:
		return fail(errcode.UnknownCommand)
	}
}

func (c *Console) carrierCmd(args []string) string {
	if len(args) == 0 {
		return fail(errcode.InvalidParams)
	}
	switch args[0] {
	case "setup":
		if err := c.ir.Setup(); err != nil {
			return fail(err)
		}
		return "ok"
	case "start":
		if !c.ir.Ready() {
			return fail(errcode.NotReady)
		}
		c.ir.Start()
		return "ok"
	case "stop":
		if !c.ir.Ready() {
			return fail(errcode.NotReady)
		}
		c.ir.Stop()
		return "ok"
	case "shutdown":
		c.ir.Shutdown()
		return "ok"
	case "state":
		return "ok " + c.ir.State().String()
	case "info":
		return carrierInfo(c.ir.Info().Detail.(types.CarrierInfo))
	case "burst":
		pairs, err := parsePairs(args[1:])
		if err != nil {
			return fail(err)
		}
		if err := c.ir.SendPairs(pairs...); err != nil {
			return fail(err)
		}
		return "ok"
	default:
		return fail(errcode.UnknownCommand)
	}
}

func (c *Console) ledCmd(args []string) string {
	if len(args) == 0 {
		return fail(errcode.InvalidParams)
	}
	switch args[0] {
	case "setup":
		if err := c.led.Setup(); err != nil {
			return fail(err)
		}
		return "ok"
	case "list":
		return "ok " + strings.Join(indicator.Names(), " ")
	case "wait":
		return c.waitCmd(args[1:])
	case "info":
		in := c.led.Info().Detail.(types.IndicatorInfo)
		b := []byte("ok red=")
		b = conv.AppendInt(b, int64(in.Red))
		b = append(b, " green="...)
		b = conv.AppendInt(b, int64(in.Green))
		b = append(b, " blue="...)
		b = conv.AppendInt(b, int64(in.Blue))
		if in.ActiveLow {
			b = append(b, " active_low"...)
		}
		return string(b)
	default:
		if err := c.led.PlayNamed(args[0]); err != nil {
			return fail(err)
		}
		return "ok"
	}
}

func (c *Console) waitCmd(args []string) string {
	if c.wait == nil {
		return fail(errcode.Unsupported)
	}
	if len(args) != 1 {
		return fail(errcode.InvalidParams)
	}
	switch args[0] {
	case "start":
		c.wait.Start(c.ctx)
		return "ok"
	case "stop":
		c.wait.Stop()
		return "ok"
	case "state":
		if c.wait.Running() {
			return "ok running"
		}
		return "ok idle"
	default:
		return fail(errcode.UnknownCommand)
	}
}

func carrierInfo(in types.CarrierInfo) string {
	b := []byte("ok timer=")
	b = conv.AppendUint(b, uint64(in.Timer))
	b = append(b, " segment="...)
	b = append(b, in.Segment...)
	b = append(b, " pin="...)
	b = conv.AppendInt(b, int64(in.Pin))
	b = append(b, " clock_hz="...)
	b = conv.AppendUint(b, uint64(in.ClockHz))
	b = append(b, " period="...)
	b = conv.AppendUint(b, uint64(in.Period))
	b = append(b, " on_time="...)
	b = conv.AppendUint(b, uint64(in.OnTime))
	b = append(b, " freq_hz="...)
	b = conv.AppendUint(b, uint64(in.FreqHz))
	b = append(b, " duty_pct="...)
	b = conv.AppendUint(b, uint64(in.DutyPct))
	return string(b)
}

// parsePairs reads alternating mark/space microsecond counts.
func parsePairs(args []string) ([]carrier.Pair, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, errcode.Wrap(errcode.InvalidParams, "console.burst", "need mark/space pairs")
	}
	out := make([]carrier.Pair, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		var p carrier.Pair
		for j := 0; j < 2; j++ {
			us, ok := conv.ParseUint(args[i+j])
			if !ok || us > maxBurstUs {
				return nil, errcode.Wrap(errcode.InvalidParams, "console.burst", args[i+j])
			}
			p[j] = time.Duration(us) * time.Microsecond
		}
		out = append(out, p)
	}
	return out, nil
}

func fail(err error) string { return "err " + string(errcode.Of(err)) }

// Serve answers commands read from r on w until r is exhausted or ctx is
// done. ctx is only checked between lines.
func (c *Console) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	c.ctx = ctx
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		reply := c.Exec(sc.Text())
		if reply == "" {
			continue
		}
		if _, err := io.WriteString(w, reply+"\n"); err != nil {
			return err
		}
	}
	return sc.Err()
}
