package solana

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"profit_go/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// rpcServer answers JSON-RPC calls with canned results keyed by method.
func rpcServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		method := gjson.GetBytes(body, "method").String()
		resp, ok := responses[method]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	}))
}

const tokenAccountsResponse = `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[
 {"pubkey":"AccA","account":{"data":{"parsed":{"info":{"mint":"MintX","owner":"Owner","tokenAmount":{"amount":"100000000","decimals":6,"uiAmountString":"100"}},"type":"account"},"program":"spl-token"}}},
 {"pubkey":"AccB","account":{"data":{"parsed":{"info":{"mint":"MintZero","owner":"Owner","tokenAmount":{"amount":"0","decimals":9,"uiAmountString":"0"}},"type":"account"},"program":"spl-token"}}},
 {"pubkey":"AccC","account":{"data":{"parsed":{"info":{"mint":"MintX","owner":"Owner","tokenAmount":{"amount":"500000","decimals":6,"uiAmountString":"0.5"}},"type":"account"},"program":"spl-token"}}},
 {"pubkey":"AccD","account":{"data":{"parsed":{"info":{"mint":"MintUnknown","owner":"Owner","tokenAmount":{"amount":"42","decimals":0,"uiAmountString":"42"}},"type":"account"},"program":"spl-token"}}}
]}}`

type stubResolver map[string]domain.TokenInfo

func (s stubResolver) Resolve(_ context.Context, mint string) (domain.TokenInfo, error) {
	info, ok := s[mint]
	if !ok {
		return domain.TokenInfo{}, domain.NewNetworkError("resolve", errors.New("not found"))
	}
	return info, nil
}

func TestInventory_NativeBalance(t *testing.T) {
	server := rpcServer(t, map[string]string{
		"getBalance": `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":1500000000}}`,
	})
	defer server.Close()

	inv := NewInventory(NewClient(server.URL, time.Second), nil)
	bal, err := inv.NativeBalance(context.Background(), "Owner")
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal.String())
}

func TestInventory_ListHeldAssets(t *testing.T) {
	server := rpcServer(t, map[string]string{"getTokenAccountsByOwner": tokenAccountsResponse})
	defer server.Close()

	resolver := stubResolver{"MintX": {Mint: "MintX", Symbol: "X", Decimals: 6}}
	inv := NewInventory(NewClient(server.URL, time.Second), resolver)

	assets, err := inv.ListHeldAssets(context.Background(), "Owner")
	require.NoError(t, err)
	require.Len(t, assets, 2, "zero balances are dropped and mints merged")

	assert.Equal(t, "MintX", assets[0].AssetID)
	assert.Equal(t, "X", assets[0].Symbol)
	assert.Equal(t, "100.5", assets[0].Balance.String())
	assert.Equal(t, uint8(6), assets[0].Decimals)

	assert.Equal(t, "MintUnknown", assets[1].AssetID)
	assert.Empty(t, assets[1].Symbol)
	assert.Equal(t, "42", assets[1].Balance.String())
}

func TestClient_Errors(t *testing.T) {
	server := rpcServer(t, map[string]string{
		"getBalance":      `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`,
		"sendTransaction": `{"jsonrpc":"2.0","id":1,"error":{"code":-32002,"message":"Transaction simulation failed"}}`,
	})
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	ctx := context.Background()

	_, err := c.GetBalance(ctx, "Owner")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = c.SendTransaction(ctx, "AAAA")
	require.ErrorIs(t, err, domain.ErrRejected)
	assert.Contains(t, err.Error(), "simulation failed")

	_, err = c.GetTokenAccountsByOwner(ctx, "Owner")
	assert.ErrorIs(t, err, domain.ErrUnavailable, "HTTP 500 is unavailable")
}

func TestClient_SendTransaction(t *testing.T) {
	var gotParams gjson.Result
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotParams = gjson.GetBytes(body, "params")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"5igSig"}`))
	}))
	defer server.Close()

	sig, err := NewClient(server.URL, time.Second).SendTransaction(context.Background(), "dHg=")
	require.NoError(t, err)
	assert.Equal(t, "5igSig", sig)
	assert.Equal(t, "dHg=", gotParams.Get("0").String())
	assert.Equal(t, "base64", gotParams.Get("1.encoding").String())
}

// wsServer replies to signatureSubscribe with an ack then the given notification.
func wsServer(t *testing.T, notification string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req struct {
			Method string `json:"method"`
		}
		json.Unmarshal(msg, &req)
		if req.Method != "signatureSubscribe" {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","result":7,"id":1}`))
		if notification != "" {
			conn.WriteMessage(websocket.TextMessage, []byte(notification))
		}
		// hold the connection until the client leaves
		conn.ReadMessage()
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestConfirmer(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		server := wsServer(t, `{"jsonrpc":"2.0","method":"signatureNotification","params":{"result":{"context":{"slot":5},"value":{"err":null}},"subscription":7}}`)
		defer server.Close()

		err := NewConfirmer(wsURL(server), 2*time.Second).WaitForConfirmation(context.Background(), "sig")
		assert.NoError(t, err)
	})

	t.Run("transaction failed", func(t *testing.T) {
		server := wsServer(t, `{"jsonrpc":"2.0","method":"signatureNotification","params":{"result":{"context":{"slot":5},"value":{"err":{"InstructionError":[0,"Custom"]}}},"subscription":7}}`)
		defer server.Close()

		err := NewConfirmer(wsURL(server), 2*time.Second).WaitForConfirmation(context.Background(), "sig")
		assert.ErrorIs(t, err, domain.ErrRejected)
	})

	t.Run("timeout", func(t *testing.T) {
		server := wsServer(t, "")
		defer server.Close()

		err := NewConfirmer(wsURL(server), 200*time.Millisecond).WaitForConfirmation(context.Background(), "sig")
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})

	t.Run("dial failure", func(t *testing.T) {
		err := NewConfirmer("ws://127.0.0.1:1", time.Second).WaitForConfirmation(context.Background(), "sig")
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}
