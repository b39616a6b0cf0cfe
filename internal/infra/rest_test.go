package infra

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"profit_go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/down":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"bad amount"}`))
		}
	}))
	defer server.Close()

	client := NewRestClient(server.URL+"/", time.Second)
	get := func(path string) error {
		resp, err := client.R().Get(path)
		return CheckResponse("test", resp, err, true)
	}

	assert.NoError(t, get("/ok"))
	assert.ErrorIs(t, get("/busy"), domain.ErrUnavailable)
	assert.ErrorIs(t, get("/down"), domain.ErrUnavailable)

	err := get("/bad")
	require.ErrorIs(t, err, domain.ErrRejected)
	assert.Contains(t, err.Error(), "bad amount")

	t.Run("client errors on reads are unavailable", func(t *testing.T) {
		resp, err := client.R().Get("/bad")
		err = CheckResponse("read", resp, err, false)
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.False(t, domain.IsRetriable(err))
	})

	t.Run("transport error", func(t *testing.T) {
		dead := NewRestClient("http://127.0.0.1:1", 200*time.Millisecond)
		resp, err := dead.R().Get("/")
		assert.ErrorIs(t, CheckResponse("dial", resp, err, true), domain.ErrUnavailable)
	})
}
