package resp

import (
	"bufio"
	"errors"
	"io"
	"strconv"
)

// Decoder reads RESP2 frames from a buffered byte stream. It is not safe
// for concurrent use; one Decoder belongs to exactly one connection.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder wraps r in a bufio.Reader sized to MaxHeaderLine, so an
// unterminated header line fails with a framing error instead of growing
// memory without bound.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, MaxHeaderLine)}
}

// Buffered reports whether another frame's worth of bytes might already be
// sitting in the read buffer, i.e. whether it's worth decoding again before
// flushing a batched reply (§4.6 step 4). It does not guarantee a complete
// frame is present, only that bytes are.
func (d *Decoder) Buffered() bool {
	return d.r.Buffered() > 0
}

// Decode reads one top-level frame. A clean io.EOF returned with no bytes
// yet consumed for this frame signals a normal connection close between
// commands; an EOF after partial bytes were read, and every protocol
// violation, is a framing error. Other read errors (such as an expired read
// deadline) are returned unchanged.
func (d *Decoder) Decode() (Frame, error) {
	return d.decodeValue(0)
}

func (d *Decoder) decodeValue(depth int) (Frame, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return Frame{}, err
	}

	switch b {
	case '+':
		return d.decodeSimpleString()
	case '-':
		return d.decodeError()
	case ':':
		return d.decodeInteger()
	case '$':
		return d.decodeBulk()
	case '*':
		return d.decodeArray(depth)
	default:
		return Frame{}, newFramingError("unknown type byte " + strconv.QuoteRune(rune(b)))
	}
}

// readLine reads up to and including the trailing "\r\n", returning the
// line with the terminator stripped. It relies on the reader's fixed
// buffer size (MaxHeaderLine) to bound unterminated lines.
func (d *Decoder) readLine() (string, error) {
	line, err := d.r.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return "", newFramingError("header line exceeds limit")
		}
		return "", wrapMidFrameErr(err)
	}
	n := len(line)
	if n < 2 || line[n-2] != '\r' {
		return "", newFramingError("header line missing CRLF terminator")
	}
	return string(line[:n-2]), nil
}

func (d *Decoder) decodeSimpleString() (Frame, error) {
	s, err := d.readLine()
	if err != nil {
		return Frame{}, err
	}
	return Frame{Kind: SimpleString, Str: s}, nil
}

func (d *Decoder) decodeError() (Frame, error) {
	s, err := d.readLine()
	if err != nil {
		return Frame{}, err
	}
	return Frame{Kind: Error, Str: s}, nil
}

func (d *Decoder) decodeInteger() (Frame, error) {
	s, err := d.readLine()
	if err != nil {
		return Frame{}, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Frame{}, newFramingError("malformed integer: " + s)
	}
	return Frame{Kind: Integer, Int: n}, nil
}

func (d *Decoder) decodeBulk() (Frame, error) {
	s, err := d.readLine()
	if err != nil {
		return Frame{}, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Frame{}, newFramingError("malformed bulk length: " + s)
	}
	if n == -1 {
		return Frame{Kind: Bulk, BulkNull: true}, nil
	}
	if n < -1 {
		return Frame{}, newFramingError("negative bulk length")
	}
	if n > MaxBulkLen {
		return Frame{}, newFramingError("bulk length exceeds limit")
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return Frame{}, wrapMidFrameErr(err)
	}
	var crlf [2]byte
	if _, err := io.ReadFull(d.r, crlf[:]); err != nil {
		return Frame{}, wrapMidFrameErr(err)
	}
	if crlf[0] != '\r' || crlf[1] != '\n' {
		return Frame{}, newFramingError("bulk string missing CRLF terminator")
	}
	return Frame{Kind: Bulk, Bulk: buf}, nil
}

func (d *Decoder) decodeArray(depth int) (Frame, error) {
	if depth >= MaxNestingDepth {
		return Frame{}, newFramingError("array nesting exceeds limit")
	}

	s, err := d.readLine()
	if err != nil {
		return Frame{}, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Frame{}, newFramingError("malformed array length: " + s)
	}
	if n == -1 {
		return Frame{Kind: Array, ArrayNull: true}, nil
	}
	if n < -1 {
		return Frame{}, newFramingError("negative array length")
	}
	if n > MaxArrayLen {
		return Frame{}, newFramingError("array length exceeds limit")
	}

	cap := int(n)
	if cap > initialArrayCap {
		cap = initialArrayCap
	}
	elems := make([]Frame, 0, cap)
	for i := int64(0); i < n; i++ {
		elem, err := d.decodeValue(depth + 1)
		if err != nil {
			return Frame{}, wrapMidFrameErr(err)
		}
		elems = append(elems, elem)
	}
	return Frame{Kind: Array, Array: elems}, nil
}
