//go:build board_pico_neopixel

package boards

var Selected = PicoNeoPixel
