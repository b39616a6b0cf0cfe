package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// InventoryGateway reads the owner's wallet.
// Failures are reported as ErrUnavailable.
type InventoryGateway interface {
	NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error)
	ListHeldAssets(ctx context.Context, owner string) ([]HeldAsset, error)
}

// PriceGateway returns quotes keyed by symbol. Symbols the source does not know
// are absent from the result rather than reported as errors.
type PriceGateway interface {
	GetQuotes(ctx context.Context, symbols []string, quoteSymbol string) (map[string]MarketQuote, error)
}

// ExecutionGateway lists and places resting orders on behalf of the owner.
// SubmitOrder fails with ErrRejected or ErrUnavailable.
type ExecutionGateway interface {
	ListOpenOrders(ctx context.Context, owner string) ([]OpenOrder, error)
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
}

// OrderCanceller withdraws a resting order. Unknown orders fail with ErrRejected.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID string) error
}

// TradeLedger durably records trade intents.
type TradeLedger interface {
	Append(ctx context.Context, intent TradeIntent) error
	CreateTableIfMissing(ctx context.Context) error
}

// TokenResolver maps a mint address to its metadata.
type TokenResolver interface {
	Resolve(ctx context.Context, mint string) (TokenInfo, error)
}

// Signer signs serialized transactions for the wallet owner.
type Signer interface {
	PublicKey() string
	SignTransaction(tx []byte) ([]byte, error)
}
