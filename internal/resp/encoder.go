package resp

import (
	"bytes"
	"strconv"
)

// The Write* functions append a single encoded RESP2 frame to buf. They
// never allocate beyond what *bytes.Buffer's own growth does when its
// capacity is already sufficient, so callers should draw buf from a
// pool sized for the connection's typical reply size.

func WriteSimpleString(buf *bytes.Buffer, s string) {
	buf.WriteByte('+')
	buf.WriteString(s)
	buf.WriteString("\r\n")
}

func WriteError(buf *bytes.Buffer, s string) {
	buf.WriteByte('-')
	buf.WriteString(s)
	buf.WriteString("\r\n")
}

func WriteInteger(buf *bytes.Buffer, n int64) {
	buf.WriteByte(':')
	buf.WriteString(strconv.FormatInt(n, 10))
	buf.WriteString("\r\n")
}

func WriteBulkString(buf *bytes.Buffer, b []byte) {
	buf.WriteByte('$')
	buf.WriteString(strconv.Itoa(len(b)))
	buf.WriteString("\r\n")
	buf.Write(b)
	buf.WriteString("\r\n")
}

func WriteNullBulk(buf *bytes.Buffer) {
	buf.WriteString("$-1\r\n")
}

func WriteArrayHeader(buf *bytes.Buffer, n int) {
	buf.WriteByte('*')
	buf.WriteString(strconv.Itoa(n))
	buf.WriteString("\r\n")
}

func WriteNullArray(buf *bytes.Buffer) {
	buf.WriteString("*-1\r\n")
}
