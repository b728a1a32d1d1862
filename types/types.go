package types

// ---- Capability kinds & info ----

type Kind string

const (
	KindCarrier   Kind = "carrier"
	KindIndicator Kind = "indicator"
)

// Info envelope each component exposes.
type Info struct {
	SchemaVersion int         `json:"schema_version"`
	Driver        string      `json:"driver"`
	Detail        interface{} `json:"detail,omitempty"`
}

// ---- Carrier ----

// RunState is the logical state of a carrier timer, distinct from the raw
// hardware counter.
type RunState uint8

const (
	Idle RunState = iota
	Running
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	default:
		return "idle"
	}
}

type CarrierInfo struct {
	Timer   uint8  `json:"timer"`
	Segment string `json:"segment"`
	Pin     int    `json:"pin"`
	ClockHz uint32 `json:"clock_hz"`
	Period  uint32 `json:"period"`
	OnTime  uint32 `json:"on_time"`
	FreqHz  uint32 `json:"freq_hz"`  // ClockHz / Period
	DutyPct uint8  `json:"duty_pct"` // OnTime * 100 / Period
}

type CarrierValue struct {
	State RunState `json:"state"`
}

// ---- Indicator ----

// Color names one of the three indicator lines.
type Color uint8

const (
	Red Color = iota
	Green
	Blue
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return "unknown"
	}
}

type IndicatorInfo struct {
	Red       int  `json:"red"`
	Green     int  `json:"green"`
	Blue      int  `json:"blue"`
	ActiveLow bool `json:"active_low"`
}

// IndicatorStep is emitted after each pin write of a pattern.
type IndicatorStep struct {
	Pattern string `json:"pattern"`
	Color   Color  `json:"color"`
	On      bool   `json:"on"`
	HoldMs  uint32 `json:"hold_ms"`
}
