package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"profit_go/internal/domain"
)

// PaperExecution is an in-memory ExecutionGateway for dry runs. Orders rest
// until cancelled or expired; nothing is signed or broadcast.
// Amounts are in minor units, same as the live gateway.
type PaperExecution struct {
	mu      sync.Mutex
	latency time.Duration
	seq     int
	orders  map[string]domain.OpenOrder
	now     func() time.Time
	logger  *slog.Logger
}

// NewPaperExecution creates a paper gateway. latency is waited out on every submit.
func NewPaperExecution(latency time.Duration) *PaperExecution {
	return &PaperExecution{
		latency: latency,
		orders:  make(map[string]domain.OpenOrder),
		now:     time.Now,
		logger:  slog.Default().With("module", "paper"),
	}
}

// ListOpenOrders returns resting, unexpired orders ordered by id. owner is ignored.
func (p *PaperExecution) ListOpenOrders(ctx context.Context, _ string) ([]domain.OpenOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	out := make([]domain.OpenOrder, 0, len(p.orders))
	for id, o := range p.orders {
		if o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
			delete(p.orders, id)
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

// SubmitOrder validates the request and rests it.
func (p *PaperExecution) SubmitOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	if !req.InAmount.IsPositive() || !req.OutAmount.IsPositive() {
		return "", fmt.Errorf("%w: amounts must be positive", domain.ErrInvalidInput)
	}
	if req.InputAssetID == "" || req.InputAssetID == req.OutputAssetID {
		return "", fmt.Errorf("%w: invalid asset pair %q/%q", domain.ErrInvalidInput, req.InputAssetID, req.OutputAssetID)
	}

	if p.latency > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.latency):
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	id := fmt.Sprintf("paper-%06d", p.seq)
	p.orders[id] = domain.OpenOrder{
		OrderID:       id,
		InputAssetID:  req.InputAssetID,
		OutputAssetID: req.OutputAssetID,
		InAmount:      req.InAmount,
		OutAmount:     req.OutAmount,
		ExpiresAt:     req.ExpiresAt,
	}

	p.logger.Info("📝 Paper order placed",
		slog.String("order", id),
		slog.String("in_mint", req.InputAssetID),
		slog.String("in", req.InAmount.String()),
		slog.String("out", req.OutAmount.String()),
	)
	return id, nil
}

// CancelOrder removes a resting order. Unknown ids are rejected.
func (p *PaperExecution) CancelOrder(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.orders[orderID]; !ok {
		return domain.NewRejectedError("paper_cancel", "unknown order "+orderID)
	}
	delete(p.orders, orderID)
	p.logger.Info("Paper order cancelled", slog.String("order", orderID))
	return nil
}
