//go:build go1.18

package resp

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// FuzzDecoder_Decode checks that the decoder never panics on arbitrary
// input and, whenever it does return an error, that error is always a
// well-formed ErrFraming (or the plain io.EOF a clean frame boundary
// produces) rather than some other unclassified failure.
func FuzzDecoder_Decode(f *testing.F) {
	f.Add("+OK\r\n")
	f.Add("-ERR x\r\n")
	f.Add(":123\r\n")
	f.Add("$5\r\nhello\r\n")
	f.Add("$-1\r\n")
	f.Add("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n")
	f.Add("*-1\r\n")
	f.Add("")
	f.Add("garbage")
	f.Add("$999999999999999\r\n")

	f.Fuzz(func(t *testing.T, raw string) {
		const limit = 1 << 16
		if len(raw) > limit {
			raw = raw[:limit]
		}

		d := NewDecoder(strings.NewReader(raw))
		for i := 0; i < 64; i++ {
			_, err := d.Decode()
			if err != nil {
				if !errors.Is(err, ErrFraming) && !errors.Is(err, io.EOF) {
					t.Fatalf("Decode(%q): unclassified error %v", raw, err)
				}
				return
			}
		}
	})
}
