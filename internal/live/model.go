// Package live provides a shared in-memory model of recent candles per
// symbol, with upsert-by-time merging, a bounded window, and pub/sub for
// streaming to websocket clients.
package live

import (
	"sort"
	"sync"

	"synr/internal/domain"
)

// DefaultWindow is the number of candles retained per symbol when the
// configured window is zero.
const DefaultWindow = 200

// CandleEvent is emitted to subscribers when a candle is added or updated.
type CandleEvent struct {
	Candle domain.Candle
	// Updated is true when the event replaced an existing bucket rather
	// than appending a new one.
	Updated bool
}

// candleKey uniquely identifies a candle bucket by (symbol, unix ms).
type candleKey struct {
	symbol string
	ts     int64
}

// CandleModel holds the most recent candles for each symbol. A candle
// arriving for an already-known (symbol, time) replaces the stored one, so
// a forming bucket can be re-pushed as it updates. Each symbol's series is
// kept sorted by time and trimmed to the window from the oldest end.
type CandleModel struct {
	mu     sync.RWMutex
	series map[string][]domain.Candle
	seen   map[candleKey]bool
	window int

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan CandleEvent
}

// NewCandleModel creates a model retaining up to window candles per symbol.
func NewCandleModel(window int) *CandleModel {
	if window <= 0 {
		window = DefaultWindow
	}
	return &CandleModel{
		series: make(map[string][]domain.Candle),
		seen:   make(map[candleKey]bool),
		window: window,
		subs:   make(map[int]chan CandleEvent),
	}
}

// Upsert merges one candle into the model and notifies subscribers. It
// reports whether the candle opened a new bucket (false means an existing
// bucket was updated in place).
func (m *CandleModel) Upsert(c domain.Candle) bool {
	key := candleKey{symbol: c.Symbol, ts: c.Time.UnixMilli()}

	m.mu.Lock()
	isNew := !m.seen[key]
	m.merge(c, key)
	m.mu.Unlock()

	m.publish(CandleEvent{Candle: c, Updated: !isNew})
	return isNew
}

// UpsertBatch merges multiple candles in bulk (from backfill). Subscribers
// are NOT notified for batch merges; backfill is served from snapshots
// instead. Returns the count of new buckets.
func (m *CandleModel) UpsertBatch(candles []domain.Candle) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, c := range candles {
		key := candleKey{symbol: c.Symbol, ts: c.Time.UnixMilli()}
		if !m.seen[key] {
			added++
		}
		m.merge(c, key)
	}
	return added
}

// merge upserts one candle into its symbol's series. Caller holds mu.
func (m *CandleModel) merge(c domain.Candle, key candleKey) {
	series := m.series[c.Symbol]

	if m.seen[key] {
		for i := range series {
			if series[i].Time.Equal(c.Time) {
				series[i] = c
				return
			}
		}
	}

	m.seen[key] = true
	series = append(series, c)
	sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })

	// Trim the oldest buckets beyond the window.
	for len(series) > m.window {
		dropped := series[0]
		delete(m.seen, candleKey{symbol: dropped.Symbol, ts: dropped.Time.UnixMilli()})
		series = series[1:]
	}
	m.series[c.Symbol] = series
}

func (m *CandleModel) publish(evt CandleEvent) {
	m.subsMu.Lock()
	for _, ch := range m.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop event.
		}
	}
	m.subsMu.Unlock()
}

// Snapshot returns a copy of the current series for a symbol, oldest first.
func (m *CandleModel) Snapshot(symbol string) []domain.Candle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	series := m.series[symbol]
	out := make([]domain.Candle, len(series))
	copy(out, series)
	return out
}

// Latest returns the most recent candle for a symbol, or false when the
// model holds none.
func (m *CandleModel) Latest(symbol string) (domain.Candle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	series := m.series[symbol]
	if len(series) == 0 {
		return domain.Candle{}, false
	}
	return series[len(series)-1], true
}

// Symbols returns all symbols currently held, sorted.
func (m *CandleModel) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	symbols := make([]string, 0, len(m.series))
	for s := range m.series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Count returns the number of candles held for a symbol.
func (m *CandleModel) Count(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.series[symbol])
}

// Subscribe creates a new subscription channel for candle events.
func (m *CandleModel) Subscribe(bufSize int) (id int, ch <-chan CandleEvent) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	id = m.nextSubID
	m.nextSubID++
	c := make(chan CandleEvent, bufSize)
	m.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscription and closes its channel.
func (m *CandleModel) Unsubscribe(id int) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if ch, ok := m.subs[id]; ok {
		close(ch)
		delete(m.subs, id)
	}
}
