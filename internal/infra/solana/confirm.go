package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"profit_go/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const handshakeTimeout = 10 * time.Second

// Confirmer waits for transaction confirmation over the RPC websocket.
type Confirmer struct {
	wsURL      string
	timeout    time.Duration
	commitment string
	logger     *slog.Logger
}

// NewConfirmer creates a confirmer. timeout bounds each WaitForConfirmation call.
func NewConfirmer(wsURL string, timeout time.Duration) *Confirmer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Confirmer{
		wsURL:      wsURL,
		timeout:    timeout,
		commitment: "confirmed",
		logger:     slog.Default().With("module", "solana"),
	}
}

// WaitForConfirmation subscribes to signature and blocks until the cluster reports
// it processed. A failed transaction is a rejection; timeouts are unavailable errors.
func (c *Confirmer) WaitForConfirmation(ctx context.Context, signature string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.wsURL, make(http.Header))
	if err != nil {
		return domain.NewNetworkError("signatureSubscribe", fmt.Errorf("dial failed: %w", err))
	}
	defer conn.Close()

	// Unblock ReadMessage when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "signatureSubscribe",
		"params":  []any{signature, map[string]string{"commitment": c.commitment}},
	}
	b, _ := json.Marshal(sub)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return domain.NewNetworkError("signatureSubscribe", err)
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				if errors.Is(ctxErr, context.DeadlineExceeded) {
					return domain.NewNetworkError("signatureSubscribe", fmt.Errorf("confirmation of %s timed out after %s", signature, c.timeout))
				}
				return ctxErr
			}
			return domain.NewNetworkError("signatureSubscribe", err)
		}

		parsed := gjson.ParseBytes(msg)
		if rpcErr := parsed.Get("error"); rpcErr.Exists() {
			return domain.NewRejectedError("signatureSubscribe", rpcErr.Get("message").String())
		}
		if parsed.Get("method").String() != "signatureNotification" {
			// subscription ack
			continue
		}

		txErr := parsed.Get("params.result.value.err")
		if txErr.Exists() && txErr.Type != gjson.Null {
			return domain.NewRejectedError("transaction", txErr.Raw)
		}
		c.logger.Debug("Transaction confirmed", slog.String("signature", signature))
		return nil
	}
}
