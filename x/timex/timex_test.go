package timex

import (
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(38000); got != 26315 {
		t.Fatalf("PeriodFromHz(38000) = %d", got)
	}
	if got := PeriodFromHz(0); got != 1_000_000_000 {
		t.Fatalf("PeriodFromHz(0) = %d", got)
	}
}

func TestTickPeriod(t *testing.T) {
	// 4 ticks of the 187.5 kHz clock.
	if got, want := TickPeriod(187_500, 4), 4*5333*time.Nanosecond; got != want {
		t.Fatalf("TickPeriod = %v, want %v", got, want)
	}
	if got := Ms(750); got != 750*time.Millisecond {
		t.Fatalf("Ms = %v", got)
	}
}
