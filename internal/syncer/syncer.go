package syncer

import (
	"context"
	"sync"

	"agribasket/internal/api"
	"agribasket/internal/cart"
	"agribasket/internal/logger"
	"agribasket/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rapid cart edits should coalesce at human speed, not hammer the backend
const (
	mirrorRate  = rate.Limit(5)
	mirrorBurst = 10
)

// Backend is the slice of the API client the syncer needs.
type Backend interface {
	AddItem(ctx context.Context, productID int64, variantID *int64, quantity int) error
	SetQuantity(ctx context.Context, productID int64, variantID *int64, quantity int) error
	RemoveItem(ctx context.Context, productID int64, variantID *int64) error
	SyncLines(ctx context.Context, lines []api.LineItem, mode string) error
}

// BestEffort mirrors local cart mutations to the backend on detached
// goroutines: never awaited by the mutation, no retry, no queue, every
// error swallowed. The local store stays the source of truth whether or
// not the backend is reachable.
type BestEffort struct {
	backend Backend
	limiter *rate.Limiter
	stats   metrics.SyncStats
	wg      sync.WaitGroup
}

func NewBestEffort(backend Backend) *BestEffort {
	return &BestEffort{
		backend: backend,
		limiter: rate.NewLimiter(mirrorRate, mirrorBurst),
	}
}

func (s *BestEffort) Add(productID int64, variantID *int64, quantity int) {
	s.detach("add_item", func(ctx context.Context) error {
		return s.backend.AddItem(ctx, productID, variantID, quantity)
	})
}

func (s *BestEffort) SetQuantity(productID int64, variantID *int64, quantity int) {
	s.detach("set_quantity", func(ctx context.Context) error {
		return s.backend.SetQuantity(ctx, productID, variantID, quantity)
	})
}

func (s *BestEffort) Remove(productID int64, variantID *int64) {
	s.detach("remove_item", func(ctx context.Context) error {
		return s.backend.RemoveItem(ctx, productID, variantID)
	})
}

func (s *BestEffort) Replace(lines []cart.Line) {
	items := make([]api.LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, api.LineItem{
			ProductID: l.ID,
			VariantID: l.VariantID,
			Weight:    l.Weight,
			Quantity:  l.Quantity,
		})
	}
	s.detach("sync", func(ctx context.Context) error {
		return s.backend.SyncLines(ctx, items, "replace")
	})
}

// Stats exposes delivery counters for the metrics endpoint.
func (s *BestEffort) Stats() *metrics.SyncStats {
	return &s.stats
}

// Flush waits for in-flight mirror calls. Only shutdown and tests care;
// mutations never do.
func (s *BestEffort) Flush() {
	s.wg.Wait()
}

// detach runs fn on its own goroutine. The result is deliberately
// discarded: a failed mirror call leaves the local cart correct and usable,
// which is the contract.
func (s *BestEffort) detach(op string, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx := context.Background()
		if err := s.limiter.Wait(ctx); err != nil {
			return
		}

		s.stats.Attempted.Inc()
		timer := metrics.StartTimer()
		if err := fn(ctx); err != nil {
			s.stats.Failed.Inc()
			logger.L().Debug("cart mirror call dropped",
				zap.String("op", op),
				zap.Error(err),
			)
			return
		}
		s.stats.Delivered.Inc()
		logger.L().Debug("cart mirror call delivered",
			zap.String("op", op),
			zap.Duration("took", timer.Duration()),
		)
	}()
}
