package resp

import (
	"errors"
	"fmt"
	"io"
)

// ErrFraming is the sentinel every decode-time protocol violation wraps.
// Connections treat any error satisfying errors.Is(err, ErrFraming) as
// fatal (§7): log, close, no server-wide impact.
var ErrFraming = errors.New("resp: framing error")

func newFramingError(msg string) error {
	return fmt.Errorf("resp: %s: %w", msg, ErrFraming)
}

// wrapMidFrameErr turns an EOF encountered after a frame has already
// started into a framing error (§4.4: "EOF mid-frame is a framing error"),
// while passing through everything else (read deadlines, other I/O errors)
// unchanged so callers can still distinguish an idle-timeout close from a
// protocol violation.
func wrapMidFrameErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newFramingError("unexpected EOF mid-frame")
	}
	return err
}
