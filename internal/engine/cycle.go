package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"profit_go/internal/domain"
	"profit_go/internal/infra"
	"profit_go/internal/strategy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// CycleResult summarizes one pass over the inventory.
type CycleResult struct {
	AssetsProcessed int
	OrdersSubmitted int
	Skipped         int
	Deferred        int
	Failed          int
	Duration        time.Duration
}

// CycleConfig holds the immutable per-run settings of the executor.
type CycleConfig struct {
	Owner         string
	QuoteSymbol   string
	TradeFraction decimal.Decimal // share of each balance offered, in (0, 1]
	MaxParallel   int
}

// Dependencies are the collaborators a cycle talks to.
type Dependencies struct {
	Inventory domain.InventoryGateway
	Prices    domain.PriceGateway
	Execution domain.ExecutionGateway
	Ledger    domain.TradeLedger
	Tokens    domain.TokenResolver
	Pricer    strategy.Pricer
	Metrics   *infra.Metrics // optional
}

// CycleExecutor runs one full inventory → quotes → reconcile → submit pass.
type CycleExecutor struct {
	cfg        CycleConfig
	deps       Dependencies
	reconciler strategy.Reconciler
	newID      func() string
	clock      Clock
	logger     *slog.Logger
}

// NewCycleExecutor validates cfg and returns an executor.
func NewCycleExecutor(cfg CycleConfig, deps Dependencies) (*CycleExecutor, error) {
	if cfg.Owner == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrInvalidInput)
	}
	if cfg.QuoteSymbol == "" {
		return nil, fmt.Errorf("%w: quote symbol is required", domain.ErrInvalidInput)
	}
	if !cfg.TradeFraction.IsPositive() || cfg.TradeFraction.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: trade fraction %s not in (0, 1]", domain.ErrInvalidInput, cfg.TradeFraction)
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 1
	}
	if deps.Inventory == nil || deps.Prices == nil || deps.Execution == nil || deps.Ledger == nil || deps.Tokens == nil || deps.Pricer == nil {
		return nil, fmt.Errorf("%w: missing cycle dependency", domain.ErrInvalidInput)
	}

	return &CycleExecutor{
		cfg:        cfg,
		deps:       deps,
		reconciler: strategy.OpenOrderReconciler{},
		newID:      uuid.NewString,
		clock:      RealClock,
		logger:     slog.Default().With("module", "engine"),
	}, nil
}

// RunCycle performs one cycle. Errors fetching balance, holdings, quotes or open
// orders abort the cycle; per-asset failures are logged and counted only.
// All per-asset work has finished when RunCycle returns.
func (e *CycleExecutor) RunCycle(ctx context.Context) (CycleResult, error) {
	start := e.clock.Now()
	var result CycleResult

	native, err := e.deps.Inventory.NativeBalance(ctx, e.cfg.Owner)
	if err != nil {
		return result, fmt.Errorf("fetch native balance: %w", err)
	}
	e.logger.Info("Wallet balance", slog.String("sol", native.String()))

	assets, err := e.deps.Inventory.ListHeldAssets(ctx, e.cfg.Owner)
	if err != nil {
		return result, fmt.Errorf("fetch held assets: %w", err)
	}
	if len(assets) == 0 {
		e.logger.Info("No tokens held, nothing to do")
		result.Duration = e.clock.Now().Sub(start)
		return result, nil
	}

	quotes, err := e.deps.Prices.GetQuotes(ctx, domain.Symbols(assets), e.cfg.QuoteSymbol)
	if err != nil {
		return result, fmt.Errorf("fetch quotes: %w", err)
	}

	orders, err := e.deps.Execution.ListOpenOrders(ctx, e.cfg.Owner)
	if err != nil {
		return result, fmt.Errorf("fetch open orders: %w", err)
	}
	open := domain.NewOpenOrderSet(orders)
	e.logger.Debug("Open orders", slog.Int("count", open.Len()))

	var submitted, skipped, deferred, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxParallel)
	for _, asset := range assets {
		asset := asset
		g.Go(func() error {
			// a panicking adapter fails this asset only; errgroup does not recover
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					e.recordMetric((*infra.Metrics).RecordOrderFailed)
					e.logger.Error("ASSET_PANIC_RECOVERED",
						slog.String("symbol", asset.Symbol),
						slog.String("mint", asset.AssetID),
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()

			var quote *domain.MarketQuote
			if q, ok := quotes[asset.Symbol]; ok {
				quote = &q
			}

			decision := e.reconciler.Reconcile(asset, quote, open)
			switch decision.Kind {
			case domain.DecisionDefer:
				deferred.Add(1)
				e.recordMetric((*infra.Metrics).RecordDeferred)
				e.logger.Debug("Deferred", slog.String("symbol", asset.Symbol), slog.String("mint", asset.AssetID), slog.String("reason", decision.Reason))
			case domain.DecisionSkip:
				skipped.Add(1)
				e.recordMetric((*infra.Metrics).RecordSkipped)
				e.logger.Info("Open order exists, skipping",
					slog.String("symbol", asset.Symbol),
					slog.String("mint", asset.AssetID),
					slog.Any("orders", orderIDs(open.ForInput(asset.AssetID))),
				)
			case domain.DecisionAct:
				switch err := e.act(ctx, decision); {
				case err == nil:
					submitted.Add(1)
					e.recordMetric((*infra.Metrics).RecordOrderSubmitted)
				case errors.Is(err, errNothingToSell):
					skipped.Add(1)
					e.recordMetric((*infra.Metrics).RecordSkipped)
					e.logger.Debug("Balance too small to trade", slog.String("symbol", asset.Symbol))
				default:
					failed.Add(1)
					e.logFailure(asset, err)
				}
			}
			// per-asset errors never cancel the siblings
			return nil
		})
	}
	_ = g.Wait()

	result = CycleResult{
		AssetsProcessed: len(assets),
		OrdersSubmitted: int(submitted.Load()),
		Skipped:         int(skipped.Load()),
		Deferred:        int(deferred.Load()),
		Failed:          int(failed.Load()),
		Duration:        e.clock.Now().Sub(start),
	}
	e.logger.Info("Cycle completed",
		slog.Int("assets", result.AssetsProcessed),
		slog.Int("submitted", result.OrdersSubmitted),
		slog.Int("skipped", result.Skipped),
		slog.Int("deferred", result.Deferred),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", result.Duration),
	)
	return result, ctx.Err()
}

var errNothingToSell = errors.New("tradable amount rounds to zero")

// act records the intent and then submits the order. A failed ledger write
// prevents submission.
func (e *CycleExecutor) act(ctx context.Context, d domain.Decision) error {
	asset, quote := d.Asset, d.Quote

	tradable := asset.Tradable(e.cfg.TradeFraction)
	if !tradable.IsPositive() {
		return errNothingToSell
	}

	target, err := e.deps.Pricer.Target(quote.Price, tradable)
	if err != nil {
		return fmt.Errorf("compute target: %w", err)
	}

	out, err := e.deps.Tokens.Resolve(ctx, quote.QuoteAssetID)
	if err != nil {
		return fmt.Errorf("resolve output token %s: %w", quote.QuoteAssetID, err)
	}

	req := domain.OrderRequest{
		InputAssetID:  asset.AssetID,
		OutputAssetID: quote.QuoteAssetID,
		InAmount:      domain.ToMinorUnits(tradable, asset.Decimals),
		OutAmount:     domain.ToMinorUnits(target.ExpectedProceeds, out.Decimals),
	}
	if !req.InAmount.IsPositive() {
		return errNothingToSell
	}
	if !req.OutAmount.IsPositive() {
		return fmt.Errorf("%w: proceeds %s %s below one minor unit", domain.ErrInvalidInput, target.ExpectedProceeds, out.Symbol)
	}

	intent := domain.TradeIntent{
		IntentID:          e.newID(),
		AssetID:           asset.AssetID,
		Symbol:            asset.Symbol,
		BalanceAtDecision: asset.Balance,
		PurchasePrice:     quote.Price,
		TargetSellPrice:   target.TargetPrice,
		QuoteSymbol:       e.cfg.QuoteSymbol,
		CreatedAt:         e.clock.Now(),
	}
	if err := e.deps.Ledger.Append(ctx, intent); err != nil {
		e.recordMetric((*infra.Metrics).RecordLedgerFailure)
		return fmt.Errorf("record intent: %w", err)
	}

	orderID, err := e.deps.Execution.SubmitOrder(ctx, req)
	if err != nil {
		return fmt.Errorf("submit order (intent %s): %w", intent.IntentID, err)
	}

	e.logger.Info("Order submitted",
		slog.String("symbol", asset.Symbol),
		slog.String("order", orderID),
		slog.String("intent", intent.IntentID),
		slog.String("amount", tradable.String()),
		slog.String("price", quote.Price.String()),
		slog.String("target", target.TargetPrice.String()),
	)
	return nil
}

func (e *CycleExecutor) logFailure(asset domain.HeldAsset, err error) {
	attrs := []any{slog.String("symbol", asset.Symbol), slog.String("mint", asset.AssetID), slog.Any("error", err)}
	switch {
	case errors.Is(err, domain.ErrRejected):
		e.recordMetric((*infra.Metrics).RecordOrderRejected)
		var re *domain.RejectedError
		if errors.As(err, &re) {
			attrs = append(attrs, slog.String("reason", re.Reason))
		}
		e.logger.Warn("Order rejected", attrs...)
	case domain.IsRetriable(err):
		e.recordMetric((*infra.Metrics).RecordOrderFailed)
		e.logger.Warn("Transient failure, asset retried next cycle", attrs...)
	default:
		e.recordMetric((*infra.Metrics).RecordOrderFailed)
		e.logger.Error("Asset processing failed", attrs...)
	}
}

func orderIDs(orders []domain.OpenOrder) []string {
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.OrderID)
	}
	return ids
}

func (e *CycleExecutor) recordMetric(record func(*infra.Metrics)) {
	if e.deps.Metrics != nil {
		record(e.deps.Metrics)
	}
}
