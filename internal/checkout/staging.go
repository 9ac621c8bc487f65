package checkout

import (
	"context"
	"encoding/json"
	"strconv"

	"agribasket/internal/cart"
	"agribasket/internal/logger"
	"agribasket/internal/storage"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

const (
	linesKey = "agribasket.checkout.lines"
	tokenKey = "agribasket.checkout.token"
)

// CartReader is the slice of the cart store the staging area needs.
type CartReader interface {
	Items() []cart.Line
}

// Staging decouples "what will be purchased" from the live cart: once a
// snapshot is taken, later cart edits (this tab or another) cannot corrupt
// an order already being placed.
type Staging struct {
	area storage.Storage
	cart CartReader
	node *snowflake.Node
}

func NewStaging(area storage.Storage, cartSrc CartReader) (*Staging, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}
	return &Staging{area: area, cart: cartSrc, node: node}, nil
}

// Begin stages lines for purchase and returns the order token. With nil
// lines the live cart is snapshotted; either way only quantities above zero
// are staged. Persistence failures are swallowed: the caller still holds
// the lines and the token, and losing a rare snapshot beats failing the
// checkout flow.
func (s *Staging) Begin(lines []Line) int64 {
	if lines == nil {
		for _, l := range s.cart.Items() {
			lines = append(lines, FromCart(l))
		}
	}

	staged := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity > 0 {
			staged = append(staged, l)
		}
	}

	token := s.node.Generate().Int64()

	raw, err := json.Marshal(staged)
	if err == nil {
		err = s.area.Set(context.Background(), linesKey, raw)
	}
	if err == nil {
		err = s.area.Set(context.Background(), tokenKey, []byte(strconv.FormatInt(token, 10)))
	}
	if err != nil {
		logger.L().Warn("failed to persist checkout snapshot", zap.Error(err))
	}

	return token
}

// Lines reads back the staged snapshot; absent or corrupt storage yields an
// empty snapshot, same fail-soft policy as the cart store.
func (s *Staging) Lines() []Line {
	raw, ok, err := s.area.Get(context.Background(), linesKey)
	if err != nil || !ok {
		return nil
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		logger.L().Debug("checkout snapshot corrupt, treating as empty", zap.Error(err))
		return nil
	}
	return lines
}

// Token returns the staged order token, 0 when no checkout is staged.
func (s *Staging) Token() int64 {
	raw, ok, err := s.area.Get(context.Background(), tokenKey)
	if err != nil || !ok {
		return 0
	}
	token, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return token
}

// Clear drops the snapshot, called by the order-placement flow once the
// backend confirms the order.
func (s *Staging) Clear() {
	ctx := context.Background()
	if err := s.area.Delete(ctx, linesKey); err != nil {
		logger.L().Warn("failed to clear checkout lines", zap.Error(err))
	}
	if err := s.area.Delete(ctx, tokenKey); err != nil {
		logger.L().Warn("failed to clear checkout token", zap.Error(err))
	}
}
