package metrics

import "sync/atomic"

// Snapshot is a point-in-time view of the aggregated counters together
// with the derived rates.
type Snapshot struct {
	// TotalRequests counts every request that entered the fetch
	// pipeline, whatever its outcome.
	TotalRequests uint64 `json:"total_requests"`

	// CacheHits counts requests served from a valid cache entry,
	// including narrow shapes projected from a cached full payload.
	CacheHits uint64 `json:"cache_hits"`

	// DedupSaved counts requests that received a shared in-flight
	// outcome instead of issuing their own upstream call.
	DedupSaved uint64 `json:"dedup_saved"`

	// CacheHitRate is CacheHits / TotalRequests, zero when no requests
	// have been recorded.
	CacheHitRate float64 `json:"cache_hit_rate"`

	// APICallsSaved is CacheHits + DedupSaved, the number of upstream
	// calls the layer absorbed.
	APICallsSaved uint64 `json:"api_calls_saved"`

	// CacheEntries is the live entry count supplied by the store at
	// snapshot time.
	CacheEntries int `json:"cache_entries"`
}

// Recorder aggregates request outcomes.
//
// Contract:
// - Concurrency: safe for concurrent use; every method is lock-free.
// - Counting: each request is recorded exactly once, as a hit, a miss,
//   or a dedup save. Counter reads in Snapshot are not taken under a
//   common lock, so a snapshot concurrent with recording reflects each
//   counter at its own read instant.
type Recorder struct {
	total atomic.Uint64
	hits  atomic.Uint64
	dedup atomic.Uint64
}

// NewRecorder returns a recorder with all counters at zero.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordHit records a request served from a valid cache entry.
func (r *Recorder) RecordHit() {
	r.total.Add(1)
	r.hits.Add(1)
}

// RecordMiss records a request that paid the upstream cost, or ended
// without being served at all.
func (r *Recorder) RecordMiss() {
	r.total.Add(1)
}

// RecordDedupSaved records a request served by joining an in-flight
// upstream call another request was already paying for.
func (r *Recorder) RecordDedupSaved() {
	r.total.Add(1)
	r.dedup.Add(1)
}

// Snapshot derives the current figures. entries is the live cache
// entry count, passed in so the recorder needs no store reference.
func (r *Recorder) Snapshot(entries int) Snapshot {
	total := r.total.Load()
	hits := r.hits.Load()
	dedup := r.dedup.Load()

	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total)
	}

	return Snapshot{
		TotalRequests: total,
		CacheHits:     hits,
		DedupSaved:    dedup,
		CacheHitRate:  rate,
		APICallsSaved: hits + dedup,
		CacheEntries:  entries,
	}
}
