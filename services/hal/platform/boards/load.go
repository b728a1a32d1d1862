//go:build !rp2040

package boards

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"

	"camremote-go/errcode"
)

// Decode reads a board override. Keys absent from the document keep the
// values of base, so a file only needs to list what differs.
func Decode(raw []byte, base Board) (Board, error) {
	b := base
	dec := toml.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return Board{}, &errcode.E{C: errcode.InvalidParams, Op: "boards.decode", Msg: err.Error(), Err: err}
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// LoadFile decodes the board file at path on top of base.
func LoadFile(path string, base Board) (Board, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Board{}, err
	}
	return Decode(raw, base)
}
