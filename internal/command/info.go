package command

import (
	"bytes"
	"fmt"

	"github.com/shaikh-shahid/redistill/internal/resp"
)

// doInfo renders the §4.5/§9 INFO sections as a single bulk reply: Redis-
// style "# Section" headers and "key:value\r\n" lines. Stats may be nil in
// tests that exercise the dispatcher without a server; in that case the
// clients section and total_commands_processed are reported as zero, and the
// server section falls back to the store's uptime and a built-in version.
func (d *Dispatcher) doInfo(buf *bytes.Buffer, args [][]byte) {
	if len(args) > 1 {
		resp.WriteError(buf, "ERR wrong number of arguments for 'info' command")
		return
	}

	var body bytes.Buffer
	body.WriteString("# Server\r\n")
	fmt.Fprintf(&body, "redis_version:%s\r\n", d.statsVersion())
	fmt.Fprintf(&body, "uptime_in_seconds:%d\r\n", d.statsUptime())
	body.WriteString("\r\n")

	body.WriteString("# Clients\r\n")
	fmt.Fprintf(&body, "connected_clients:%d\r\n", d.statsActiveConnections())
	fmt.Fprintf(&body, "total_connections_received:%d\r\n", d.statsTotalConnections())
	fmt.Fprintf(&body, "rejected_connections:%d\r\n", d.statsRejectedConnections())
	body.WriteString("\r\n")

	body.WriteString("# Memory\r\n")
	fmt.Fprintf(&body, "used_memory:%d\r\n", d.store.UsedMemory())
	fmt.Fprintf(&body, "maxmemory:%d\r\n", d.store.MaxMemory())
	fmt.Fprintf(&body, "evicted_keys:%d\r\n", d.store.EvictedKeys())
	body.WriteString("\r\n")

	body.WriteString("# Stats\r\n")
	fmt.Fprintf(&body, "total_commands_processed:%d\r\n", d.statsTotalCommands())
	fmt.Fprintf(&body, "db_size:%d\r\n", d.store.DBSize())
	body.WriteString("\r\n")

	// Additive trailing section (spec.md §9's explicit allowance): several
	// monitoring scrapers expect a role field even on a standalone node.
	body.WriteString("# Replication\r\n")
	body.WriteString("role:master\r\n")
	body.WriteString("connected_slaves:0\r\n")

	resp.WriteBulkString(buf, body.Bytes())
}

func (d *Dispatcher) statsUptime() int64 {
	if d.stats == nil {
		return d.store.Uptime().Milliseconds() / 1000
	}
	return d.stats.Uptime()
}

func (d *Dispatcher) statsVersion() string {
	if d.stats == nil {
		return "7.0.0-redistill"
	}
	return d.stats.Version()
}

func (d *Dispatcher) statsActiveConnections() int64 {
	if d.stats == nil {
		return 0
	}
	return d.stats.ActiveConnections()
}

func (d *Dispatcher) statsTotalConnections() int64 {
	if d.stats == nil {
		return 0
	}
	return d.stats.TotalConnections()
}

func (d *Dispatcher) statsRejectedConnections() int64 {
	if d.stats == nil {
		return 0
	}
	return d.stats.RejectedConnections()
}

func (d *Dispatcher) statsTotalCommands() int64 {
	if d.stats == nil {
		return 0
	}
	return d.stats.TotalCommands()
}
