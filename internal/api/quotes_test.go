package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetQuote_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/market/quote/AAPL.json", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"QuoteResponse": {
				"QuoteData": [{
					"All": {
						"companyName": "APPLE INC COM",
						"lastTrade": 189.05,
						"bid": 189.00,
						"ask": 189.10,
						"bidSize": 200,
						"askSize": 300,
						"totalVolume": 52345678,
						"changeClose": 1.55,
						"changeClosePercentage": 0.83,
						"high52": 199.62,
						"low52": 164.08
					},
					"Product": {"symbol": "AAPL"}
				}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	quote, err := client.GetQuote(context.Background(), "aapl")

	require.NoError(t, err)
	assert.Equal(t, "AAPL", quote.Symbol)
	assert.Equal(t, "APPLE INC COM", quote.CompanyName)
	assert.Equal(t, 189.05, quote.LastTrade)
	assert.Equal(t, int64(52345678), quote.TotalVolume)
	assert.Equal(t, 0.83, quote.ChangePercent)
}

func TestGetQuote_UnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"QuoteResponse": {
				"Messages": {
					"Message": [{"description": "Invalid symbol", "type": "ERROR"}]
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	_, err := client.GetQuote(context.Background(), "ZZZZZZ")

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Error(), "ZZZZZZ")
}

func TestGetQuote_NoDataNoMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"QuoteResponse": {}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	_, err := client.GetQuote(context.Background(), "AAPL")

	var protoErr *UpstreamProtocolError
	assert.ErrorAs(t, err, &protoErr)
}

func TestGetQuote_EmptySymbol(t *testing.T) {
	client := NewClient("http://unused", nil)
	_, err := client.GetQuote(context.Background(), "  ")

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
}
