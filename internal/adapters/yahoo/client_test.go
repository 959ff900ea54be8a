package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliobot/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL, Logger: &mockLogger{}})
	require.NoError(t, err)
	return client
}

func TestLatestClose_DailyClose(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/NVDA", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":141.2},
			"indicators":{"quote":[{"close":[null,139.8,140.5]}]}}],"error":null}}`)
	})

	price, err := client.LatestClose(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.InDelta(t, 140.5, price, 1e-9)
}

func TestLatestClose_FallsBackToMetaPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":141.2},
			"indicators":{"quote":[{"close":[null,null]}]}}],"error":null}}`)
	})

	price, err := client.LatestClose(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.InDelta(t, 141.2, price, 1e-9)
}

func TestLatestClose_UnknownSymbol(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	})

	_, err := client.LatestClose(context.Background(), "NOSUCH")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrPriceUnavailable)
}

func TestLatestClose_APIErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"delisted"}}}`)
	})

	_, err := client.LatestClose(context.Background(), "GONE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrPriceUnavailable)
}

func TestLatestClose_RateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.LatestClose(context.Background(), "NVDA")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrRateLimited)
}

func TestLatestClose_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.LatestClose(context.Background(), "NVDA")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestLatestClose_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":`)
	})

	_, err := client.LatestClose(context.Background(), "NVDA")
	assert.Error(t, err)
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
