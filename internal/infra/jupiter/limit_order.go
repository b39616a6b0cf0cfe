package jupiter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"profit_go/internal/domain"
	"profit_go/internal/infra"
	"profit_go/internal/infra/wallet"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// TxSender broadcasts a signed base64 transaction and returns its signature.
type TxSender interface {
	SendTransaction(ctx context.Context, txBase64 string) (string, error)
}

// TxConfirmer blocks until a transaction signature is confirmed.
type TxConfirmer interface {
	WaitForConfirmation(ctx context.Context, signature string) error
}

// LimitOrderClient implements domain.ExecutionGateway and domain.OrderCanceller against the Jupiter
// limit-order API. Orders are built remotely, signed locally and sent over RPC.
type LimitOrderClient struct {
	http      *resty.Client
	signer    domain.Signer
	sender    TxSender
	confirmer TxConfirmer // optional
	logger    *slog.Logger
}

// NewLimitOrderClient creates an execution gateway. confirmer may be nil.
func NewLimitOrderClient(baseURL string, timeout time.Duration, signer domain.Signer, sender TxSender, confirmer TxConfirmer) *LimitOrderClient {
	return &LimitOrderClient{
		http:      infra.NewRestClient(baseURL, timeout),
		signer:    signer,
		sender:    sender,
		confirmer: confirmer,
		logger:    slog.Default().With("module", "jupiter"),
	}
}

// ListOpenOrders returns the owner's resting orders.
func (c *LimitOrderClient) ListOpenOrders(ctx context.Context, owner string) ([]domain.OpenOrder, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("wallet", owner).
		Get("/openOrders")
	if err := infra.CheckResponse("list_open_orders", resp, err, false); err != nil {
		return nil, err
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, domain.NewNetworkError("list_open_orders", fmt.Errorf("invalid JSON response"))
	}

	var orders []domain.OpenOrder
	gjson.ParseBytes(body).ForEach(func(_, o gjson.Result) bool {
		acc := o.Get("account")
		order := domain.OpenOrder{
			OrderID:       o.Get("publicKey").String(),
			InputAssetID:  acc.Get("inputMint").String(),
			OutputAssetID: acc.Get("outputMint").String(),
			InAmount:      parseAmount(acc.Get("inAmount")),
			OutAmount:     parseAmount(acc.Get("outAmount")),
		}
		if exp := acc.Get("expiredAt"); exp.Exists() && exp.Type != gjson.Null {
			t := time.Unix(exp.Int(), 0).UTC()
			order.ExpiresAt = &t
		}
		orders = append(orders, order)
		return true
	})
	return orders, nil
}

type createOrderRequest struct {
	Owner      string      `json:"owner"`
	InAmount   json.Number `json:"inAmount"`
	OutAmount  json.Number `json:"outAmount"`
	InputMint  string      `json:"inputMint"`
	OutputMint string      `json:"outputMint"`
	ExpiredAt  *int64      `json:"expiredAt"`
	Base       string      `json:"base"`
}

// SubmitOrder creates, signs, sends and confirms a resting order.
// The returned ID is the order account address.
func (c *LimitOrderClient) SubmitOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	if !req.InAmount.IsPositive() || !req.OutAmount.IsPositive() {
		return "", fmt.Errorf("%w: amounts must be positive (in=%s out=%s)", domain.ErrInvalidInput, req.InAmount, req.OutAmount)
	}

	// The order account is a fresh keypair that co-signs its creation.
	base, err := wallet.NewEphemeralSigner()
	if err != nil {
		return "", fmt.Errorf("generate order account: %w", err)
	}

	body := createOrderRequest{
		Owner:      c.signer.PublicKey(),
		InAmount:   json.Number(req.InAmount.Truncate(0).String()),
		OutAmount:  json.Number(req.OutAmount.Truncate(0).String()),
		InputMint:  req.InputAssetID,
		OutputMint: req.OutputAssetID,
		Base:       base.PublicKey(),
	}
	if req.ExpiresAt != nil {
		exp := req.ExpiresAt.Unix()
		body.ExpiredAt = &exp
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/createOrder")
	if err := infra.CheckResponse("create_order", resp, err, true); err != nil {
		return "", err
	}

	parsed := gjson.ParseBytes(resp.Body())
	if msg := parsed.Get("error"); msg.Exists() {
		return "", domain.NewRejectedError("create_order", msg.String())
	}
	txB64 := parsed.Get("tx").String()
	orderID := parsed.Get("orderPubkey").String()
	if orderID == "" {
		orderID = base.PublicKey()
	}

	sig, err := c.signAndSend(ctx, "create_order", txB64, c.signer, base)
	if err != nil {
		return "", fmt.Errorf("order %s: %w", orderID, err)
	}

	c.logger.Info("Limit order placed",
		slog.String("order", orderID),
		slog.String("signature", sig),
		slog.String("input", req.InputAssetID),
		slog.String("output", req.OutputAssetID),
	)
	return orderID, nil
}

type cancelOrdersRequest struct {
	Owner    string   `json:"owner"`
	FeePayer string   `json:"feePayer"`
	Orders   []string `json:"orders"`
}

// CancelOrder closes a resting order and returns its input to the owner.
func (c *LimitOrderClient) CancelOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", domain.ErrInvalidInput)
	}

	owner := c.signer.PublicKey()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(cancelOrdersRequest{Owner: owner, FeePayer: owner, Orders: []string{orderID}}).
		Post("/cancelOrders")
	if err := infra.CheckResponse("cancel_order", resp, err, true); err != nil {
		return err
	}

	parsed := gjson.ParseBytes(resp.Body())
	if msg := parsed.Get("error"); msg.Exists() {
		return domain.NewRejectedError("cancel_order", msg.String())
	}
	sig, err := c.signAndSend(ctx, "cancel_order", parsed.Get("tx").String(), c.signer)
	if err != nil {
		return fmt.Errorf("cancel %s: %w", orderID, err)
	}

	c.logger.Info("Limit order cancelled", slog.String("order", orderID), slog.String("signature", sig))
	return nil
}

// signAndSend decodes a venue-built transaction, signs it with every signer
// in order, broadcasts it and waits for confirmation when a confirmer is set.
func (c *LimitOrderClient) signAndSend(ctx context.Context, op, txB64 string, signers ...domain.Signer) (string, error) {
	if txB64 == "" {
		return "", domain.NewRejectedError(op, "response has no transaction")
	}
	tx, err := base64.StdEncoding.DecodeString(txB64)
	if err != nil {
		return "", domain.NewRejectedError(op, "transaction is not base64")
	}
	for _, s := range signers {
		if tx, err = s.SignTransaction(tx); err != nil {
			return "", fmt.Errorf("sign as %s: %w", s.PublicKey(), err)
		}
	}

	sig, err := c.sender.SendTransaction(ctx, base64.StdEncoding.EncodeToString(tx))
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	if c.confirmer != nil {
		if err := c.confirmer.WaitForConfirmation(ctx, sig); err != nil {
			return "", fmt.Errorf("confirm %s: %w", sig, err)
		}
	}
	return sig, nil
}

func parseAmount(r gjson.Result) decimal.Decimal {
	if !r.Exists() {
		return decimal.Zero
	}
	raw := r.Str
	if r.Type == gjson.Number {
		raw = r.Raw
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}
