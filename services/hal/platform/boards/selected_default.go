//go:build !board_pico_neopixel

package boards

// Selected is the board compiled into the firmware.
var Selected = PicoRemote
