package jupiter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"profit_go/internal/domain"
	"profit_go/internal/infra"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// PriceClient implements domain.PriceGateway against the Jupiter price API.
type PriceClient struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewPriceClient creates a price client for baseURL (e.g. https://price.jup.ag/v4).
func NewPriceClient(baseURL string, timeout time.Duration) *PriceClient {
	return &PriceClient{
		http:   infra.NewRestClient(baseURL, timeout),
		logger: slog.Default().With("module", "jupiter"),
	}
}

// GetQuotes fetches prices for all symbols in a single request.
// Symbols the API does not know are absent from the result.
func (c *PriceClient) GetQuotes(ctx context.Context, symbols []string, quoteSymbol string) (map[string]domain.MarketQuote, error) {
	quotes := make(map[string]domain.MarketQuote, len(symbols))
	if len(symbols) == 0 {
		return quotes, nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(symbols, ",")).
		SetQueryParam("vsToken", quoteSymbol).
		Get("/price")
	if err := infra.CheckResponse("get_quotes", resp, err, false); err != nil {
		return nil, err
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, domain.NewNetworkError("get_quotes", fmt.Errorf("invalid JSON response"))
	}

	gjson.GetBytes(body, "data").ForEach(func(key, entry gjson.Result) bool {
		price, err := decimal.NewFromString(entry.Get("price").Raw)
		if err != nil {
			c.logger.Warn("Unparseable price", slog.String("symbol", key.String()), slog.String("raw", entry.Get("price").Raw))
			return true
		}
		symbol := entry.Get("mintSymbol").String()
		if symbol == "" {
			symbol = key.String()
		}
		quotes[key.String()] = domain.MarketQuote{
			AssetID:      entry.Get("id").String(),
			Symbol:       symbol,
			Price:        price,
			QuoteSymbol:  entry.Get("vsTokenSymbol").String(),
			QuoteAssetID: entry.Get("vsToken").String(),
		}
		return true
	})

	c.logger.Debug("Quotes fetched", slog.Int("requested", len(symbols)), slog.Int("received", len(quotes)))
	return quotes, nil
}
