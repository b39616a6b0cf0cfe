package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"profit_go/internal/domain"
	"profit_go/internal/engine"
	"profit_go/internal/execution"
	"profit_go/internal/infra"
	"profit_go/internal/infra/jupiter"
	"profit_go/internal/infra/solana"
	"profit_go/internal/infra/storage"
	"profit_go/internal/infra/wallet"
	"profit_go/internal/service"
	"profit_go/internal/strategy"
)

// OrderGateway places, lists and cancels resting orders.
type OrderGateway interface {
	domain.ExecutionGateway
	domain.OrderCanceller
}

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	RPC        *solana.Client
	Tokens     *service.TokenRegistry
	Orders     OrderGateway
	Metrics    *infra.Metrics
	Executor   *engine.CycleExecutor
	Supervisor *engine.Supervisor
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{Metrics: infra.GlobalMetrics}
}

// Initialize loads configuration and wires every component. Nothing touches
// the network except warming the token cache from the local database.
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("🚀 Bootstrapping Profit Go...", slog.String("version", cfg.App.Version), slog.Bool("dry_run", cfg.Trading.DryRun))

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized", slog.String("path", cfg.Storage.DBPath))

	// 4. Token registry: memory -> sqlite -> Jupiter token API
	b.Tokens = service.NewTokenRegistry(store, jupiter.NewTokenClient(cfg.Jupiter.TokenURL, cfg.Jupiter.Timeout))
	b.Tokens.Register(domain.TokenInfo{Mint: solana.NativeMint, Symbol: "SOL", Name: "Wrapped SOL", Decimals: solana.SOLDecimals})
	if n, err := b.Tokens.Warm(ctx); err != nil {
		slog.Warn("Token cache warm-up failed", slog.Any("error", err))
	} else {
		slog.Info("✅ Token cache warmed", slog.Int("tokens", n))
	}

	// 5. Gateways
	b.RPC = solana.NewClient(cfg.Solana.RPCURL, cfg.Jupiter.Timeout)
	if b.Orders, err = b.orderGateway(); err != nil {
		return err
	}

	pricer, err := strategy.NewFixedMargin(cfg.Trading.MarginRatio)
	if err != nil {
		return &domain.ConfigError{Field: "trading.margin_ratio", Err: err}
	}

	// 6. Cycle executor & supervisor
	b.Executor, err = engine.NewCycleExecutor(
		engine.CycleConfig{
			Owner:         cfg.Wallet.PublicKey,
			QuoteSymbol:   cfg.Trading.QuoteSymbol,
			TradeFraction: cfg.Trading.TradeFraction,
			MaxParallel:   cfg.Trading.MaxParallel,
		},
		engine.Dependencies{
			Inventory: solana.NewInventory(b.RPC, b.Tokens),
			Prices:    jupiter.NewPriceClient(cfg.Jupiter.PriceURL, cfg.Jupiter.Timeout),
			Execution: b.Orders,
			Ledger:    store,
			Tokens:    b.Tokens,
			Pricer:    pricer,
			Metrics:   b.Metrics,
		},
	)
	if err != nil {
		return fmt.Errorf("build cycle executor: %w", err)
	}

	b.Supervisor = engine.NewSupervisor(b.Executor,
		cfg.Trading.PollInterval, cfg.Trading.RecoveryInterval,
		engine.WithMetrics(b.Metrics),
	)
	slog.Info("✅ Supervisor ready",
		slog.String("quote", cfg.Trading.QuoteSymbol),
		slog.String("margin", cfg.Trading.MarginRatio.String()),
		slog.String("fraction", cfg.Trading.TradeFraction.String()),
	)
	return nil
}

func (b *Bootstrap) orderGateway() (OrderGateway, error) {
	cfg := b.Config
	if cfg.Trading.DryRun {
		slog.Warn("🧪 Dry run: orders are simulated in memory")
		return execution.NewPaperExecution(0), nil
	}

	signer, err := wallet.NewSigner(cfg.Wallet.PrivateKey, cfg.Wallet.PublicKey)
	if err != nil {
		return nil, err
	}
	slog.Info("✅ Wallet loaded", slog.String("owner", signer.PublicKey()))

	return jupiter.NewLimitOrderClient(
		cfg.Jupiter.LimitOrderURL, cfg.Jupiter.Timeout,
		signer, b.RPC,
		solana.NewConfirmer(cfg.Solana.WSURL, cfg.Solana.ConfirmTimeout),
	), nil
}

// SyncTokens resolves metadata for every mint the wallet holds so the first
// cycle starts with a warm cache. Failures are logged and left to the cycle.
func (b *Bootstrap) SyncTokens(ctx context.Context) {
	slog.Info("🔄 Starting token synchronization...")

	accounts, err := b.RPC.GetTokenAccountsByOwner(ctx, b.Config.Wallet.PublicKey)
	if err != nil {
		slog.Warn("Failed to list token accounts", slog.Any("error", err))
		return
	}

	uniqueMints := make(map[string]bool)
	for _, acc := range accounts {
		uniqueMints[acc.Mint] = true
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent lookups

	for mint := range uniqueMints {
		wg.Add(1)
		go func(m string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			if _, err := b.Tokens.Resolve(ctx, m); err != nil {
				slog.Warn("Failed to resolve token", slog.String("mint", m), slog.Any("error", err))
			}
		}(mint)
	}

	wg.Wait()
	slog.Info("✨ Token synchronization completed", slog.Int("mints", len(uniqueMints)))
}

// Close releases resources held by the bootstrap.
func (b *Bootstrap) Close() {
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Error("Failed to close database", slog.Any("error", err))
		}
	}
}
