package resp

// Hardening limits (§4.4, security-critical). A decoder that exceeds any of
// these returns a framing error and the connection is closed (§7).
const (
	// MaxArrayLen bounds the declared element count of an array frame.
	MaxArrayLen = 1_000_000

	// MaxBulkLen bounds the declared length of a bulk string in bytes.
	MaxBulkLen = 512 * 1024 * 1024

	// MaxHeaderLine bounds a simple-string/error/integer/length header
	// line. Not named explicitly in spec.md, but required to give the
	// "must not pre-allocate capacity proportional to an unvalidated length
	// header" invariant teeth for the line-reading path too: it is enforced
	// by sizing the buffered reader to this value, so an unterminated line
	// fails fast with a framing error instead of growing without bound.
	MaxHeaderLine = 64 * 1024

	// MaxNestingDepth bounds recursive array-of-arrays depth. RESP2 clients
	// only ever send a single flat array of bulk strings as a command, so
	// this is a defensive margin beyond anything spec.md requires, not a
	// limit real traffic should ever approach.
	MaxNestingDepth = 32

	// initialArrayCap is the up-front capacity reserved for a decoded
	// array's backing slice, regardless of the (already-validated, but
	// still attacker-controlled) declared count. The slice still grows to
	// the real count via append, but growth is paid for only as real frame
	// bytes arrive over the wire, not the instant a count header is parsed.
	initialArrayCap = 64
)
