package boards

// PicoRemote is the reference wiring: discrete common-cathode RGB LED on
// GP18..GP20 and the IR LED on GP22 (PWM slice 3, channel A).
var PicoRemote = Board{
	Name:      "pico_remote",
	Red:       18,
	Green:     19,
	Blue:      20,
	NeoPixel:  NoPin,
	IRLED:     22,
	Timer:     3,
	Segment:   "A",
	Clock:     "hfrc_187k5",
	Period:    4,
	OnTime:    2,
	ConsoleTX: 0,
	ConsoleRX: 1,
	Baud:      115200,
}

// PicoNeoPixel swaps the discrete LED for a WS2812 pixel on GP16.
var PicoNeoPixel = Board{
	Name:      "pico_neopixel",
	Red:       NoPin,
	Green:     NoPin,
	Blue:      NoPin,
	NeoPixel:  16,
	IRLED:     22,
	Timer:     3,
	Segment:   "A",
	Clock:     "hfrc_187k5",
	Period:    4,
	OnTime:    2,
	ConsoleTX: 0,
	ConsoleRX: 1,
	Baud:      115200,
}

// Known lists the built-in boards by name.
var Known = map[string]Board{
	PicoRemote.Name:   PicoRemote,
	PicoNeoPixel.Name: PicoNeoPixel,
}
