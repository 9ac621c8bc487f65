package cart

import (
	"context"
	"encoding/json"
	"sync"

	"agribasket/internal/logger"
	"agribasket/internal/storage"

	"go.uber.org/zap"
)

const linesKey = "agribasket.cart"

// Syncer mirrors committed cart mutations to the backend. Implementations
// must never block: the store calls these after the local commit and does
// not look at the outcome.
type Syncer interface {
	Add(productID int64, variantID *int64, quantity int)
	SetQuantity(productID int64, variantID *int64, quantity int)
	Remove(productID int64, variantID *int64)
	Replace(lines []Line)
}

// NopSyncer drops every mirror call.
type NopSyncer struct{}

func (NopSyncer) Add(int64, *int64, int)         {}
func (NopSyncer) SetQuantity(int64, *int64, int) {}
func (NopSyncer) Remove(int64, *int64)           {}
func (NopSyncer) Replace([]Line)                 {}

// Store is the single source of truth for the live cart. Durable storage IS
// the state: every read goes to the area, nothing is cached besides the raw
// snapshot used to de-duplicate external change events.
type Store struct {
	mu      sync.Mutex
	area    storage.Storage
	syncer  Syncer
	subs    map[int]func()
	nextSub int
	lastRaw string
	cancel  context.CancelFunc
}

func NewStore(area storage.Storage, syncer Syncer) *Store {
	if syncer == nil {
		syncer = NopSyncer{}
	}
	s := &Store{
		area:   area,
		syncer: syncer,
		subs:   make(map[int]func()),
	}

	if w, ok := area.(storage.Watcher); ok {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		go s.watch(ctx, w.Watch(ctx, linesKey))
	}

	return s
}

// Close stops the external change watcher, if any.
func (s *Store) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Items returns the current cart. Missing or corrupt storage yields an
// empty cart, never an error: a broken cart blob must not break shopping.
func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items()
}

// Add merges line into the cart: an existing line with the same identity
// key gets its quantity incremented, otherwise the line is appended.
func (s *Store) Add(line Line) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}

	s.mu.Lock()
	items := s.items()
	merged := false
	for i := range items {
		if items[i].matches(line.ID, line.Weight, line.VariantID) {
			items[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, line)
	}
	s.persist(items)
	s.mu.Unlock()

	s.notify()
	s.syncer.Add(line.ID, line.VariantID, line.Quantity)
}

// SetQuantity overwrites the quantity of the matching line. A quantity of
// zero or less removes the line, quantities below one are never persisted.
// Without a matching line nothing is committed, so subscribers and the
// mirror stay quiet.
func (s *Store) SetQuantity(id int64, weight string, quantity int, variantID *int64) {
	s.mu.Lock()
	items := s.items()
	if quantity <= 0 {
		items = dropLine(items, id, weight, variantID)
	} else {
		matched := false
		for i := range items {
			if items[i].matches(id, weight, variantID) {
				items[i].Quantity = quantity
				matched = true
				break
			}
		}
		if !matched {
			s.mu.Unlock()
			return
		}
	}
	s.persist(items)
	s.mu.Unlock()

	s.notify()
	if quantity <= 0 {
		s.syncer.Remove(id, variantID)
	} else {
		s.syncer.SetQuantity(id, variantID, quantity)
	}
}

// Remove deletes the matching line unconditionally.
func (s *Store) Remove(id int64, weight string, variantID *int64) {
	s.mu.Lock()
	s.persist(dropLine(s.items(), id, weight, variantID))
	s.mu.Unlock()

	s.notify()
	s.syncer.Remove(id, variantID)
}

// Clear empties the cart and mirrors a full replace with no lines.
func (s *Store) Clear() {
	s.mu.Lock()
	s.persist(nil)
	s.mu.Unlock()

	s.notify()
	s.syncer.Replace(nil)
}

// Count is the sum of quantities, recomputed from storage on every call.
func (s *Store) Count() int {
	total := 0
	for _, l := range s.Items() {
		total += l.Quantity
	}
	return total
}

// Total is the sum of price*quantity, recomputed from storage on every call.
func (s *Store) Total() float64 {
	var total float64
	for _, l := range s.Items() {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// Subscribe registers fn to run once per committed mutation (including
// external changes picked up by the storage watcher) and returns the
// matching unsubscribe.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// items reads and decodes the cart under s.mu.
func (s *Store) items() []Line {
	raw, ok, err := s.area.Get(context.Background(), linesKey)
	if err != nil || !ok {
		if err != nil {
			logger.L().Debug("cart storage read failed", zap.Error(err))
		}
		return nil
	}

	var items []Line
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.L().Debug("cart storage corrupt, treating as empty", zap.Error(err))
		return nil
	}
	return items
}

// persist writes items under s.mu, dropping any line whose quantity fell to
// zero or below. Write failures are logged, never surfaced: mutations must
// not throw into UI handlers.
func (s *Store) persist(items []Line) {
	kept := make([]Line, 0, len(items))
	for _, l := range items {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}

	raw, err := json.Marshal(kept)
	if err != nil {
		logger.L().Warn("failed to encode cart", zap.Error(err))
		return
	}
	if err := s.area.Set(context.Background(), linesKey, raw); err != nil {
		logger.L().Warn("failed to persist cart", zap.Error(err))
		return
	}
	s.lastRaw = string(raw)
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// watch funnels external storage changes into the subscriber path. Events
// caused by this store's own writes are filtered by comparing the raw
// snapshot, so subscribers still see exactly one call per mutation.
func (s *Store) watch(ctx context.Context, events <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
		}

		s.mu.Lock()
		raw, _, err := s.area.Get(ctx, linesKey)
		changed := err == nil && string(raw) != s.lastRaw
		if changed {
			s.lastRaw = string(raw)
		}
		s.mu.Unlock()

		if changed {
			s.notify()
		}
	}
}

func dropLine(items []Line, id int64, weight string, variantID *int64) []Line {
	kept := items[:0]
	for _, l := range items {
		if !l.matches(id, weight, variantID) {
			kept = append(kept, l)
		}
	}
	return kept
}
