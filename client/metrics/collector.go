// Package metrics tracks live-feed health for the terminal client.
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Record kinds besides frame kinds.
const (
	KindConnect   = "CONN_NEW"
	KindReconnect = "RETRY"
	KindError     = "ERROR"
)

type Record struct {
	Timestamp time.Time
	Kind      string
	// Latency is receive time minus the server timestamp, in milliseconds.
	Latency int64
}

type Statistics struct {
	Frames      int
	Connections int
	Retries     int
	Errors      int
	KindCounts  map[string]int
	MinLatency  int64
	MaxLatency  int64
	LastFrameAt time.Time
	StartTime   time.Time
}

// Collector accumulates records and optionally mirrors them to CSV.
type Collector struct {
	mu        sync.Mutex
	stats     Statistics
	latencies []int64
	csvWriter *csv.Writer
}

// NewCollector returns a collector. When w is non-nil every record is also
// written to it as a CSV row.
func NewCollector(w io.Writer) *Collector {
	c := &Collector{
		stats: Statistics{
			KindCounts: make(map[string]int),
			MinLatency: 1<<63 - 1,
			StartTime:  time.Now(),
		},
	}
	if w != nil {
		c.csvWriter = csv.NewWriter(w)
		c.csvWriter.Write([]string{"timestamp", "kind", "latency_ms"})
		c.csvWriter.Flush()
	}
	return c
}

func (c *Collector) Record(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch r.Kind {
	case KindConnect:
		c.stats.Connections++
	case KindReconnect:
		c.stats.Retries++
	case KindError:
		c.stats.Errors++
	default:
		c.stats.Frames++
		c.stats.KindCounts[r.Kind]++
		c.stats.LastFrameAt = r.Timestamp
		if r.Latency < c.stats.MinLatency {
			c.stats.MinLatency = r.Latency
		}
		if r.Latency > c.stats.MaxLatency {
			c.stats.MaxLatency = r.Latency
		}
		c.latencies = append(c.latencies, r.Latency)
	}

	if c.csvWriter != nil {
		c.csvWriter.Write([]string{
			r.Timestamp.Format(time.RFC3339),
			r.Kind,
			strconv.FormatInt(r.Latency, 10),
		})
		c.csvWriter.Flush()
	}
}

// RecordFrame records a frame received at now and stamped by the server at sent.
func (c *Collector) RecordFrame(kind string, sent, now time.Time) {
	c.Record(Record{Timestamp: now, Kind: kind, Latency: now.Sub(sent).Milliseconds()})
}

func (c *Collector) RecordConnection() {
	c.Record(Record{Timestamp: time.Now(), Kind: KindConnect})
}

func (c *Collector) RecordRetry() {
	c.Record(Record{Timestamp: time.Now(), Kind: KindReconnect})
}

func (c *Collector) RecordError() {
	c.Record(Record{Timestamp: time.Now(), Kind: KindError})
}

// Snapshot returns a copy of the current statistics.
func (c *Collector) Snapshot() Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.KindCounts = make(map[string]int, len(c.stats.KindCounts))
	for k, v := range c.stats.KindCounts {
		s.KindCounts[k] = v
	}
	if s.Frames == 0 {
		s.MinLatency = 0
	}
	return s
}

func (c *Collector) CalculatePercentiles() (median, p95, p99 int64) {
	c.mu.Lock()
	sorted := append([]int64(nil), c.latencies...)
	c.mu.Unlock()

	if len(sorted) == 0 {
		return 0, 0, 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	median = sorted[n/2]
	p95 = sorted[int(float64(n)*0.95)]
	p99 = sorted[int(float64(n)*0.99)]
	return
}

// Summary is a one-line status for the chat screen.
func (c *Collector) Summary() string {
	s := c.Snapshot()
	median, p95, _ := c.CalculatePercentiles()
	return fmt.Sprintf("live: %d frames, %d reconnects, latency p50 %dms p95 %dms",
		s.Frames, s.Retries, median, p95)
}
