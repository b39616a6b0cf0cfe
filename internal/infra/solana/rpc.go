package solana

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"profit_go/internal/domain"
	"profit_go/internal/infra"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// Well-known program and mint addresses.
const (
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	NativeMint     = "So11111111111111111111111111111111111111112"

	LamportsPerSOL = 1_000_000_000
	SOLDecimals    = 9
)

// Client is a minimal Solana JSON-RPC client.
type Client struct {
	http       *resty.Client
	commitment string
	nextID     atomic.Uint64
	logger     *slog.Logger
}

// NewClient creates a JSON-RPC client for rpcURL.
func NewClient(rpcURL string, timeout time.Duration) *Client {
	return &Client{
		http:       infra.NewRestClient(rpcURL, timeout),
		commitment: "confirmed",
		logger:     slog.Default().With("module", "solana"),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// call performs one JSON-RPC request and returns the "result" member.
// A JSON-RPC error object becomes a rejection when rejectErrors is set and an
// unavailable error otherwise.
func (c *Client) call(ctx context.Context, method string, params []any, rejectErrors bool) (gjson.Result, error) {
	req := rpcRequest{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("")
	if err := infra.CheckResponse(method, resp, err, false); err != nil {
		return gjson.Result{}, err
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, domain.NewNetworkError(method, fmt.Errorf("invalid JSON response"))
	}
	parsed := gjson.ParseBytes(body)
	if rpcErr := parsed.Get("error"); rpcErr.Exists() && rpcErr.Type != gjson.Null {
		msg := rpcErr.Get("message").String()
		if msg == "" {
			msg = rpcErr.Raw
		}
		if rejectErrors {
			return gjson.Result{}, domain.NewRejectedError(method, msg)
		}
		return gjson.Result{}, domain.NewNetworkError(method, fmt.Errorf("rpc error %d: %s", rpcErr.Get("code").Int(), msg))
	}
	return parsed.Get("result"), nil
}

// GetBalance returns the native balance of owner in lamports.
func (c *Client) GetBalance(ctx context.Context, owner string) (uint64, error) {
	result, err := c.call(ctx, "getBalance", []any{owner, map[string]string{"commitment": c.commitment}}, false)
	if err != nil {
		return 0, err
	}
	value := result.Get("value")
	if !value.Exists() {
		return 0, domain.NewNetworkError("getBalance", fmt.Errorf("missing value in result"))
	}
	return value.Uint(), nil
}

// TokenAccount is one parsed SPL token account.
type TokenAccount struct {
	Address  string
	Mint     string
	Amount   string // raw minor units
	Decimals uint8
}

// GetTokenAccountsByOwner lists the SPL token accounts owned by owner.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error) {
	params := []any{
		owner,
		map[string]string{"programId": TokenProgramID},
		map[string]string{"encoding": "jsonParsed", "commitment": c.commitment},
	}
	result, err := c.call(ctx, "getTokenAccountsByOwner", params, false)
	if err != nil {
		return nil, err
	}

	var accounts []TokenAccount
	result.Get("value").ForEach(func(_, acc gjson.Result) bool {
		info := acc.Get("account.data.parsed.info")
		if !info.Exists() {
			return true
		}
		accounts = append(accounts, TokenAccount{
			Address:  acc.Get("pubkey").String(),
			Mint:     info.Get("mint").String(),
			Amount:   info.Get("tokenAmount.amount").String(),
			Decimals: uint8(info.Get("tokenAmount.decimals").Uint()),
		})
		return true
	})
	return accounts, nil
}

// SendTransaction broadcasts a signed, base64-encoded transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, txBase64 string) (string, error) {
	params := []any{txBase64, map[string]string{
		"encoding":            "base64",
		"preflightCommitment": c.commitment,
	}}
	result, err := c.call(ctx, "sendTransaction", params, true)
	if err != nil {
		return "", err
	}
	sig := result.String()
	if sig == "" {
		return "", domain.NewNetworkError("sendTransaction", fmt.Errorf("empty signature"))
	}
	c.logger.Debug("Transaction sent", slog.String("signature", sig))
	return sig, nil
}
