package jupiter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"profit_go/internal/domain"
	"profit_go/internal/infra"

	"github.com/go-resty/resty/v2"
)

// TokenClient looks up token metadata from the Jupiter token API.
type TokenClient struct {
	http *resty.Client
}

// NewTokenClient creates a token client for baseURL (e.g. https://tokens.jup.ag).
func NewTokenClient(baseURL string, timeout time.Duration) *TokenClient {
	return &TokenClient{http: infra.NewRestClient(baseURL, timeout)}
}

type tokenResponse struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Resolve implements domain.TokenResolver. Unknown mints are rejections.
func (c *TokenClient) Resolve(ctx context.Context, mint string) (domain.TokenInfo, error) {
	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("mint", mint).
		SetResult(&out).
		Get("/token/{mint}")
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return domain.TokenInfo{}, domain.NewRejectedError("resolve_token", "unknown mint "+mint)
	}
	if err := infra.CheckResponse("resolve_token", resp, err, false); err != nil {
		return domain.TokenInfo{}, err
	}
	if out.Symbol == "" {
		return domain.TokenInfo{}, domain.NewRejectedError("resolve_token", fmt.Sprintf("no metadata for %s", mint))
	}

	address := out.Address
	if address == "" {
		address = mint
	}
	return domain.TokenInfo{
		Mint:     address,
		Symbol:   out.Symbol,
		Name:     out.Name,
		Decimals: out.Decimals,
	}, nil
}
