package solana

import (
	"context"
	"fmt"
	"log/slog"

	"profit_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Inventory implements domain.InventoryGateway on top of the RPC client.
type Inventory struct {
	rpc    *Client
	tokens domain.TokenResolver
	logger *slog.Logger
}

// NewInventory creates an inventory gateway. tokens supplies symbols for mints.
func NewInventory(rpc *Client, tokens domain.TokenResolver) *Inventory {
	return &Inventory{
		rpc:    rpc,
		tokens: tokens,
		logger: slog.Default().With("module", "solana"),
	}
}

// NativeBalance returns the owner's SOL balance in whole SOL.
func (i *Inventory) NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	lamports, err := i.rpc.GetBalance(ctx, owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("native balance: %w", err)
	}
	return domain.FromMinorUnits(decimal.NewFromUint64(lamports), SOLDecimals), nil
}

// ListHeldAssets returns every token with a positive balance, one entry per mint.
// Mints whose metadata cannot be resolved are returned without a symbol.
func (i *Inventory) ListHeldAssets(ctx context.Context, owner string) ([]domain.HeldAsset, error) {
	accounts, err := i.rpc.GetTokenAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list token accounts: %w", err)
	}

	raw := make(map[string]decimal.Decimal)
	decimals := make(map[string]uint8)
	var order []string
	for _, acc := range accounts {
		amount, err := decimal.NewFromString(acc.Amount)
		if err != nil {
			i.logger.Warn("Unparseable token amount", slog.String("account", acc.Address), slog.String("amount", acc.Amount))
			continue
		}
		if !amount.IsPositive() {
			continue
		}
		if _, seen := raw[acc.Mint]; !seen {
			order = append(order, acc.Mint)
		}
		raw[acc.Mint] = raw[acc.Mint].Add(amount)
		decimals[acc.Mint] = acc.Decimals
	}

	assets := make([]domain.HeldAsset, 0, len(order))
	for _, mint := range order {
		asset := domain.HeldAsset{
			AssetID:  mint,
			Balance:  domain.FromMinorUnits(raw[mint], decimals[mint]),
			Decimals: decimals[mint],
		}
		if i.tokens != nil {
			info, err := i.tokens.Resolve(ctx, mint)
			if err != nil {
				i.logger.Warn("Token metadata unavailable", slog.String("mint", mint), slog.Any("error", err))
			} else {
				asset.Symbol = info.Symbol
			}
		}
		assets = append(assets, asset)
	}
	return assets, nil
}
