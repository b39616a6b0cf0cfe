package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"profit_go/internal/domain"

	"github.com/shopspring/decimal"
)

type fakeInventory struct {
	native    decimal.Decimal
	nativeErr error
	assets    []domain.HeldAsset
	assetsErr error
}

func (f *fakeInventory) NativeBalance(context.Context, string) (decimal.Decimal, error) {
	return f.native, f.nativeErr
}

func (f *fakeInventory) ListHeldAssets(context.Context, string) ([]domain.HeldAsset, error) {
	return f.assets, f.assetsErr
}

type fakePrices struct {
	quotes  map[string]domain.MarketQuote
	err     error
	calls   atomic.Int32
	symbols []string
}

func (f *fakePrices) GetQuotes(_ context.Context, symbols []string, _ string) (map[string]domain.MarketQuote, error) {
	f.calls.Add(1)
	f.symbols = symbols
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.MarketQuote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

type fakeExecution struct {
	mu         sync.Mutex
	orders     []domain.OpenOrder
	listErr    error
	listCalls  atomic.Int32
	submitErrs map[string]error // by input asset
	submitted  []domain.OrderRequest
	delay      time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeExecution) ListOpenOrders(context.Context, string) ([]domain.OpenOrder, error) {
	f.listCalls.Add(1)
	return f.orders, f.listErr
}

func (f *fakeExecution) SubmitOrder(_ context.Context, req domain.OrderRequest) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if err := f.submitErrs[req.InputAssetID]; err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	return fmt.Sprintf("order-%d", len(f.submitted)), nil
}

func (f *fakeExecution) submissions() []domain.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderRequest(nil), f.submitted...)
}

type fakeLedger struct {
	mu         sync.Mutex
	intents    []domain.TradeIntent
	appendErrs map[string]error // by asset
}

func (f *fakeLedger) Append(_ context.Context, intent domain.TradeIntent) error {
	if err := f.appendErrs[intent.AssetID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, intent)
	return nil
}

func (f *fakeLedger) CreateTableIfMissing(context.Context) error { return nil }

func (f *fakeLedger) rows() []domain.TradeIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TradeIntent(nil), f.intents...)
}

type fakeTokens map[string]domain.TokenInfo

func (f fakeTokens) Resolve(_ context.Context, mint string) (domain.TokenInfo, error) {
	info, ok := f[mint]
	if !ok {
		return domain.TokenInfo{}, domain.NewRejectedError("resolve_token", "unknown "+mint)
	}
	return info, nil
}

// fakeClock advances only when told and fires After immediately, recording the delay.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, d)
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}
