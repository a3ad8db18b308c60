package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaikh-shahid/redistill/internal/command"
	"github.com/shaikh-shahid/redistill/internal/eviction"
	"github.com/shaikh-shahid/redistill/internal/store"
)

func newTestServer(t *testing.T, opt Options) *Server {
	t.Helper()
	s := store.New(store.Options{Shards: 4})
	eng := eviction.New(s, eviction.Options{})
	s.SetGrowthTrigger(eng)

	srv, err := New(s, nil, opt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cc := srv.CommandMetrics()
	d := command.New(s, eng, command.Options{Metrics: cc, Stats: srv})
	srv.dispatcher = d
	return srv
}

func TestServer_ListenAndAcceptPing(t *testing.T) {
	opt := Options{Bind: "127.0.0.1:0"}
	srv := newTestServer(t, opt)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}

	go srv.Serve(nil)

	c, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	c.SetDeadline(time.Now().Add(2 * time.Second))
	c.Write([]byte("*1\r\n$4\r\nPING\r\n"))
	buf := make([]byte, 64)
	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(buf[:n]) != "+PONG\r\n" {
		t.Fatalf("got %q", buf[:n])
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestServer_MaxConnectionsRejectsExcess(t *testing.T) {
	opt := Options{Bind: "127.0.0.1:0", MaxConnections: 1}
	srv := newTestServer(t, opt)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go srv.Serve(nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	c1, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial 1: %v", err)
	}
	defer c1.Close()

	time.Sleep(20 * time.Millisecond)

	c2, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial 2: %v", err)
	}
	defer c2.Close()

	c2.SetDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 8)
	_, err = c2.Read(buf)
	if err == nil {
		t.Fatal("expected second connection to be closed by admission control")
	}

	time.Sleep(20 * time.Millisecond)
	if got := srv.RejectedConnections(); got != 1 {
		t.Fatalf("rejected connections = %d, want 1", got)
	}
}

func TestServer_HealthEndpointReportsCounters(t *testing.T) {
	opt := Options{Bind: "127.0.0.1:0"}
	srv := newTestServer(t, opt)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.HealthHandler().ServeHTTP(rec, req)

	var doc healthDoc
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Status != "ok" {
		t.Fatalf("status = %q, want ok", doc.Status)
	}
}

func TestTokenBucket_DisabledAlwaysAllows(t *testing.T) {
	tb := newTokenBucket(0)
	for i := 0; i < 100; i++ {
		if !tb.allow() {
			t.Fatal("disabled bucket must always allow")
		}
	}
}

func TestTokenBucket_LimitsBurst(t *testing.T) {
	tb := newTokenBucket(2)
	allowed := 0
	for i := 0; i < 10; i++ {
		if tb.allow() {
			allowed++
		}
	}
	if allowed > 3 {
		t.Fatalf("allowed %d of 10 instantly, want a small burst only", allowed)
	}
}
