package perftests

import (
	"context"
	"encoding/json"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"auction-bidsync/internal/push"
	"auction-bidsync/internal/reconciler"
	"auction-bidsync/internal/tracker"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name        string
	NumItems    int
	BidsPerItem int
	ReadRatio   int // out of 10
	BidRatio    int // share of pushes that are bid-events, out of 10
	MaxLatency  time.Duration
	Burst       bool // if true, no delay between ops
}

// Benchmark_Load_EventStorm pushes a mix of item switches and bid events
// through the reconciler while viewers read the tracker, then checks the
// tracker settled on the last announced item.
func Benchmark_Load_EventStorm(b *testing.B) {
	scenarios := []LoadScenario{
		{"Fast-Fetch-SwitchHeavy", 50, 10, 0, 2, 0, true},
		{"Slow-Fetch-SwitchHeavy", 50, 10, 0, 2, 2 * time.Millisecond, true},
		{"Bid-Storm-SingleItem", 1, 200, 3, 9, time.Millisecond, true},
		{"ReadHeavy", 20, 50, 9, 5, time.Millisecond, false},
		{"Mixed-Workload", 100, 25, 5, 5, time.Millisecond, false},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runEventStorm(b, s)
		})
	}
}

func runEventStorm(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	api := newMemAuction(s.NumItems, s.BidsPerItem, s.MaxLatency)
	tr := tracker.New(api, "bench", 1)
	rec := reconciler.New("bench", 1, tr, api, api, nil)
	ctx := context.Background()

	// a transport delivers from one goroutine, so dispatch is serialized
	var dispatchMu sync.Mutex
	var lastAnnounced int64

	var totalOps, pushes, reads int64
	metrics := &OperationMetrics{}
	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			opStart := time.Now()
			if rnd.Intn(10) < s.ReadRatio {
				snap := tr.Snapshot()
				if snap.BidState != nil {
					_ = snap.BidState.CurrentMinimumBid
				}
				atomic.AddInt64(&reads, 1)
			} else {
				itemID := int64(rnd.Intn(s.NumItems) + 1)
				name := push.EventActiveItem
				if rnd.Intn(10) < s.BidRatio {
					name = push.EventBid
				}
				data, _ := json.Marshal(map[string]int64{"itemId": itemID})

				dispatchMu.Lock()
				rec.Dispatch(ctx, push.Event{Channel: "auction-bench", Name: name, Data: data})
				lastAnnounced = tr.ActiveItemID()
				dispatchMu.Unlock()
				atomic.AddInt64(&pushes, 1)
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(100 * time.Microsecond)
			}
		}
	})

	rec.Wait()
	elapsed := time.Since(start)

	if lastAnnounced != 0 {
		snap := tr.Snapshot()
		if snap.State != tracker.ItemActive || snap.ItemID != lastAnnounced {
			b.Fatalf("tracker settled on %d (%s), last announced %d", snap.ItemID, snap.State, lastAnnounced)
		}
	}

	throughput := float64(totalOps) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Items: %d | Total Ops: %d | Pushes: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumItems, totalOps, pushes, reads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)
}
