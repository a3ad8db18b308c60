// Command bench drives a synthetic SET/GET workload against a running
// Redistill server over the real RESP wire protocol, and exposes optional
// pprof/Prometheus endpoints.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shaikh-shahid/redistill/internal/metrics"
	"github.com/shaikh-shahid/redistill/internal/resp"
)

func main() {
	var (
		addr = flag.String("addr", "127.0.0.1:6379", "address of the Redistill server")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys  = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		preload = flag.Int("preload", 10_000, "keys preloaded in total, split evenly across workers; preload time counts toward the measured duration")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8081", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	bm := metrics.New(nil, "redistill_bench")
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	readPctVal := *readPct

	var reads, writes, hits, misses, total uint64

	var wg sync.WaitGroup
	stop := make(chan struct{})
	time.AfterFunc(*duration, func() { close(stop) })

	start := time.Now()
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			c, err := newClient(*addr)
			if err != nil {
				log.Printf("worker %d: dial: %v", id, err)
				return
			}
			defer c.Close()

			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, *zipfS, *zipfV, keysMax)
			keyFor := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for i := 0; i < *preload/workersN; i++ {
				if err := c.set(keyFor(), "v"); err != nil {
					log.Printf("worker %d: preload set: %v", id, err)
					return
				}
			}

			for {
				select {
				case <-stop:
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					ok, err := c.get(keyFor())
					if err != nil {
						log.Printf("worker %d: get: %v", id, err)
						return
					}
					bm.Command("GET")
					if ok {
						atomic.AddUint64(&hits, 1)
						bm.Hit()
					} else {
						atomic.AddUint64(&misses, 1)
						bm.Miss()
					}
				} else {
					atomic.AddUint64(&writes, 1)
					if err := c.set(keyFor(), "v"+strconv.Itoa(localR.Int())); err != nil {
						log.Printf("worker %d: set: %v", id, err)
						return
					}
					bm.Command("SET")
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("addr=%s workers=%d keys=%d dur=%v seed=%d\n", *addr, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n", ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)
}

// client is a minimal RESP client: just enough to drive SET/GET over a
// single persistent connection for the benchmark's request loop.
type client struct {
	conn net.Conn
	dec  *resp.Decoder
	buf  bytes.Buffer
}

func newClient(addr string) (*client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &client{conn: conn, dec: resp.NewDecoder(conn)}, nil
}

func (c *client) Close() error { return c.conn.Close() }

func (c *client) set(key, value string) error {
	c.buf.Reset()
	resp.WriteArrayHeader(&c.buf, 3)
	resp.WriteBulkString(&c.buf, []byte("SET"))
	resp.WriteBulkString(&c.buf, []byte(key))
	resp.WriteBulkString(&c.buf, []byte(value))
	if _, err := c.conn.Write(c.buf.Bytes()); err != nil {
		return err
	}
	_, err := c.dec.Decode()
	return err
}

func (c *client) get(key string) (hit bool, err error) {
	c.buf.Reset()
	resp.WriteArrayHeader(&c.buf, 2)
	resp.WriteBulkString(&c.buf, []byte("GET"))
	resp.WriteBulkString(&c.buf, []byte(key))
	if _, err := c.conn.Write(c.buf.Bytes()); err != nil {
		return false, err
	}
	f, err := c.dec.Decode()
	if err != nil {
		return false, err
	}
	return f.Kind == resp.Bulk && !f.BulkNull, nil
}
