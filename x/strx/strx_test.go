package strx

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "pico"); got != "pico" {
		t.Fatalf("got %q", got)
	}
	if got := Coalesce("feather", "pico"); got != "feather" {
		t.Fatalf("got %q", got)
	}
}

func TestStripComment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"led sht_setup # flash twice", "led sht_setup"},
		{"# whole line", ""},
		{"carrier start\r", "carrier start"},
		{`echo "a # b"`, `echo "a # b"`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := StripComment(tt.in); got != tt.want {
			t.Errorf("StripComment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
