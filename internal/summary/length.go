package summary

import (
	"fmt"
	"strings"

	"github.com/hpungsan/yougpt/internal/errors"
)

// Length is the requested summary size in words. It is passed into the
// prompt only; the placeholder summarizer ignores it.
type Length string

const (
	Length100    Length = "100"
	Length500    Length = "500"
	Length800    Length = "800"
	Length1000   Length = "1000"
	Length1500   Length = "1500"
	LengthCustom Length = "custom"
)

// DefaultLength is preselected in the UI and used when no length is given.
const DefaultLength = Length1000

// Lengths lists every length in display order.
var Lengths = []Length{Length100, Length500, Length800, Length1000, Length1500, LengthCustom}

// ParseLength resolves s to a Length. Empty input yields DefaultLength.
func ParseLength(s string) (Length, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultLength, nil
	}
	for _, l := range Lengths {
		if string(l) == key {
			return l, nil
		}
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unknown summary length %q", s))
}

func (l Length) String() string {
	return string(l)
}
