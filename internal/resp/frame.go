package resp

// Kind identifies which of the five RESP2 frame types a Frame holds (§4.4).
type Kind int

const (
	SimpleString Kind = iota
	Error
	Integer
	Bulk
	Array
)

// Frame is a decoded (or to-be-encoded) RESP2 value. Only the fields
// matching Kind are meaningful.
type Frame struct {
	Kind Kind

	// Str holds the payload for SimpleString and Error.
	Str string

	// Int holds the payload for Integer.
	Int int64

	// Bulk holds the payload for Bulk. BulkNull distinguishes the null bulk
	// ($-1\r\n) from a zero-length bulk string ($0\r\n\r\n).
	Bulk     []byte
	BulkNull bool

	// Array holds the sub-frames for Array. ArrayNull distinguishes a null
	// array (*-1\r\n) from an empty one (*0\r\n).
	Array     []Frame
	ArrayNull bool
}

// Args extracts a command frame's verb and arguments as raw byte strings.
// Returns ok=false if f is not a well-formed command array (a non-null
// array of bulk strings).
func (f Frame) Args() (args [][]byte, ok bool) {
	if f.Kind != Array || f.ArrayNull {
		return nil, false
	}
	out := make([][]byte, 0, len(f.Array))
	for _, sub := range f.Array {
		if sub.Kind != Bulk || sub.BulkNull {
			return nil, false
		}
		out = append(out, sub.Bulk)
	}
	return out, true
}
