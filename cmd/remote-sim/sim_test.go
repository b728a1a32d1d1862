//go:build !rp2040

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"camremote-go/errcode"
)

func TestRunScript(t *testing.T) {
	script := strings.Join([]string{
		"led setup",
		"carrier setup",
		"carrier start",
		"carrier state",
		"led interval_count_timer_complete",
		"carrier stop",
		"carrier burst 9000 4500",
		"nope",
	}, "\n")
	var out, logs bytes.Buffer
	o := options{Board: "pico_remote", Fast: true, Tick: time.Millisecond, Cycles: 8, LogLevel: "info"}
	if err := run(context.Background(), o, strings.NewReader(script), &out, newLogger(&logs, o.LogLevel)); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "ok\nok\nok\nok running\nok\nok\nok\nerr unknown_command\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "msg=done") {
		t.Fatalf("missing summary log:\n%s", logs.String())
	}
}

func TestRunBoardFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.toml")
	if err := os.WriteFile(path, []byte("ir_led = 15\nactive_low = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	o := options{Board: "pico_remote", BoardFile: path, Fast: true}
	err := run(context.Background(), o, strings.NewReader("carrier info\nled info\n"), &out, newLogger(io.Discard, "error"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], " pin=15 ") || !strings.HasSuffix(lines[1], " active_low") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestRunUnknownBoard(t *testing.T) {
	o := options{Board: "toaster", Fast: true}
	err := run(context.Background(), o, strings.NewReader(""), io.Discard, newLogger(io.Discard, "error"))
	if errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("run = %v", err)
	}
}

func TestRootCmdScriptFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmds.txt")
	if err := os.WriteFile(path, []byte("led list # patterns\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--script", path, "--fast", "--log-level", "error"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "ok recv_wait_blink ") {
		t.Fatalf("output = %q", out.String())
	}
}
