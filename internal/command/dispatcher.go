// Package command implements the command dispatcher (C5): it maps a
// decoded RESP array frame to a store operation and an encoded reply,
// enforcing the unauthenticated-connection gate and the dispatcher-level
// error kinds of spec.md §4.5/§7 (syntax, OOM, NOAUTH, unknown command).
package command

import (
	"bytes"
	"crypto/subtle"
	"path"
	"strconv"
	"strings"

	"github.com/shaikh-shahid/redistill/internal/eviction"
	"github.com/shaikh-shahid/redistill/internal/resp"
	"github.com/shaikh-shahid/redistill/internal/store"
)

// Metrics receives dispatcher-level counters. Implemented by
// internal/metrics.Adapter; a nil Metrics on Dispatcher means counters are
// simply not recorded (the dispatcher never requires one).
type Metrics interface {
	Hit()
	Miss()
	Command(verb string)
}

// Stats reports server-wide state for INFO (§4.5) without internal/command
// importing internal/server, which owns that state. Implemented by
// *server.Server.
type Stats interface {
	Uptime() int64
	Version() string
	ActiveConnections() int64
	TotalConnections() int64
	RejectedConnections() int64
	TotalCommands() int64
}

// Dispatcher maps command frames to store operations. One Dispatcher is
// shared by every connection; all fields below are either immutable after
// construction or already safe for concurrent use.
type Dispatcher struct {
	store    *store.Store
	eng      *eviction.Engine
	metrics  Metrics
	stats    Stats
	password string
}

// Options configures a Dispatcher. Password empty disables the AUTH gate
// entirely (§4.5).
type Options struct {
	Password string
	Metrics  Metrics
	Stats    Stats
}

func New(s *store.Store, eng *eviction.Engine, opt Options) *Dispatcher {
	return &Dispatcher{
		store:    s,
		eng:      eng,
		metrics:  opt.Metrics,
		stats:    opt.Stats,
		password: opt.Password,
	}
}

// RequiresAuth reports whether a password is configured, i.e. whether new
// connections start unauthenticated and gated (§3's invariant).
func (d *Dispatcher) RequiresAuth() bool { return d.password != "" }

var unauthAllowed = map[string]bool{
	"PING": true,
	"AUTH": true,
	"QUIT": true,
}

// Dispatch executes one command frame against the store, writing its reply
// into buf, and returns whether the connection should close after this
// reply (QUIT) and whether authenticated flips to true (AUTH success).
// authenticated is the connection's current auth state; Dispatch does not
// mutate it, the caller applies the returned delta.
func (d *Dispatcher) Dispatch(buf *bytes.Buffer, f resp.Frame, authenticated bool) (closeAfter bool, nowAuthenticated bool) {
	nowAuthenticated = authenticated

	args, ok := f.Args()
	if !ok || len(args) == 0 {
		resp.WriteError(buf, "ERR invalid command frame")
		return false, nowAuthenticated
	}

	verb := strings.ToUpper(string(args[0]))
	if d.metrics != nil {
		d.metrics.Command(verb)
	}

	if d.RequiresAuth() && !authenticated && !unauthAllowed[verb] {
		resp.WriteError(buf, "NOAUTH Authentication required")
		return false, nowAuthenticated
	}

	switch verb {
	case "PING":
		d.doPing(buf, args[1:])
	case "AUTH":
		nowAuthenticated = d.doAuth(buf, args[1:], authenticated)
	case "SET":
		d.doSet(buf, args[1:])
	case "GET":
		d.doGet(buf, args[1:])
	case "DEL":
		d.doDel(buf, args[1:])
	case "EXISTS":
		d.doExists(buf, args[1:])
	case "KEYS":
		d.doKeys(buf, args[1:])
	case "DBSIZE":
		d.doDBSize(buf, args[1:])
	case "FLUSHDB":
		d.doFlushDB(buf, args[1:])
	case "INFO":
		d.doInfo(buf, args[1:])
	case "CONFIG":
		d.doConfig(buf, args[1:])
	case "COMMAND":
		resp.WriteArrayHeader(buf, 0)
	case "QUIT":
		resp.WriteSimpleString(buf, "OK")
		return true, nowAuthenticated
	default:
		resp.WriteError(buf, "ERR unknown command '"+verb+"'")
	}

	return false, nowAuthenticated
}

func (d *Dispatcher) doPing(buf *bytes.Buffer, args [][]byte) {
	switch len(args) {
	case 0:
		resp.WriteSimpleString(buf, "PONG")
	case 1:
		resp.WriteBulkString(buf, args[0])
	default:
		resp.WriteError(buf, "ERR wrong number of arguments for 'ping' command")
	}
}

func (d *Dispatcher) doAuth(buf *bytes.Buffer, args [][]byte, authenticated bool) bool {
	if len(args) != 1 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'auth' command")
		return authenticated
	}
	if d.password == "" {
		resp.WriteError(buf, "ERR Client sent AUTH, but no password is set")
		return authenticated
	}
	given := args[0]
	// subtle.ConstantTimeCompare requires equal-length inputs; a length
	// mismatch already proves a miss, so only equal-length attempts need
	// the constant-time path.
	match := len(given) == len(d.password) && subtle.ConstantTimeCompare(given, []byte(d.password)) == 1
	if !match {
		resp.WriteError(buf, "ERR invalid password")
		return authenticated
	}
	resp.WriteSimpleString(buf, "OK")
	return true
}

func (d *Dispatcher) doSet(buf *bytes.Buffer, args [][]byte) {
	var ttl int64
	switch len(args) {
	case 2:
	case 4:
		if !strings.EqualFold(string(args[2]), "EX") {
			resp.WriteError(buf, "ERR syntax error")
			return
		}
		n, err := strconv.ParseInt(string(args[3]), 10, 64)
		if err != nil || n <= 0 {
			resp.WriteError(buf, "ERR syntax error")
			return
		}
		ttl = n
	default:
		resp.WriteError(buf, "ERR wrong number of arguments for 'set' command")
		return
	}

	_, err := d.store.Set(string(args[0]), args[1], ttl)
	if err != nil {
		resp.WriteError(buf, "OOM command not allowed when used memory > 'maxmemory'")
		return
	}
	resp.WriteSimpleString(buf, "OK")
}

func (d *Dispatcher) doGet(buf *bytes.Buffer, args [][]byte) {
	if len(args) != 1 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'get' command")
		return
	}
	var touch func(e *store.Entry, now int64)
	if d.eng != nil {
		touch = d.eng.MaybeTouch
	}
	v, ok := d.store.Get(string(args[0]), touch)
	if !ok {
		if d.metrics != nil {
			d.metrics.Miss()
		}
		resp.WriteNullBulk(buf)
		return
	}
	if d.metrics != nil {
		d.metrics.Hit()
	}
	resp.WriteBulkString(buf, v)
}

func (d *Dispatcher) doDel(buf *bytes.Buffer, args [][]byte) {
	if len(args) == 0 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'del' command")
		return
	}
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}
	resp.WriteInteger(buf, int64(d.store.Del(keys...)))
}

func (d *Dispatcher) doExists(buf *bytes.Buffer, args [][]byte) {
	if len(args) == 0 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'exists' command")
		return
	}
	var n int64
	for _, a := range args {
		if d.store.Exists(string(a)) {
			n++
		}
	}
	resp.WriteInteger(buf, n)
}

// doKeys implements the §9-resolved pattern subset: "*" and literal
// patterns built only from "*"/"?" wildcards via path.Match semantics;
// anything else is rejected rather than silently mismatched.
func (d *Dispatcher) doKeys(buf *bytes.Buffer, args [][]byte) {
	if len(args) != 1 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'keys' command")
		return
	}
	pattern := string(args[0])
	if !isSupportedGlob(pattern) {
		resp.WriteError(buf, "ERR unsupported KEYS pattern")
		return
	}

	keys := d.store.Keys()
	matched := make([][]byte, 0, len(keys))
	for _, k := range keys {
		ok, err := path.Match(pattern, string(k))
		if err != nil {
			resp.WriteError(buf, "ERR unsupported KEYS pattern")
			return
		}
		if ok {
			matched = append(matched, k)
		}
	}

	resp.WriteArrayHeader(buf, len(matched))
	for _, k := range matched {
		resp.WriteBulkString(buf, k)
	}
}

func isSupportedGlob(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?':
		case '[', ']', '\\':
			return false
		default:
			if r < 0x20 {
				return false
			}
		}
	}
	return true
}

func (d *Dispatcher) doDBSize(buf *bytes.Buffer, args [][]byte) {
	if len(args) != 0 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'dbsize' command")
		return
	}
	resp.WriteInteger(buf, d.store.DBSize())
}

func (d *Dispatcher) doFlushDB(buf *bytes.Buffer, args [][]byte) {
	if len(args) != 0 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'flushdb' command")
		return
	}
	d.store.FlushDB()
	resp.WriteSimpleString(buf, "OK")
}

// doConfig implements the §9-resolved CONFIG GET/COMMAND compatibility
// stub: known keys resolve against the live store, unknown keys return an
// empty array rather than an error.
func (d *Dispatcher) doConfig(buf *bytes.Buffer, args [][]byte) {
	if len(args) < 1 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'config' command")
		return
	}
	sub := strings.ToUpper(string(args[0]))
	switch sub {
	case "GET":
		if len(args) != 2 {
			resp.WriteArrayHeader(buf, 0)
			return
		}
		d.doConfigGet(buf, strings.ToLower(string(args[1])))
	default:
		resp.WriteArrayHeader(buf, 0)
	}
}

func (d *Dispatcher) doConfigGet(buf *bytes.Buffer, key string) {
	var value string
	switch key {
	case "maxmemory":
		value = strconv.FormatInt(d.store.MaxMemory(), 10)
	case "maxmemory-policy":
		value = d.store.Policy().String()
	case "save":
		value = ""
	case "appendonly":
		value = "no"
	default:
		resp.WriteArrayHeader(buf, 0)
		return
	}
	resp.WriteArrayHeader(buf, 2)
	resp.WriteBulkString(buf, []byte(key))
	resp.WriteBulkString(buf, []byte(value))
}
