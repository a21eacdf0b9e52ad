package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/domain/book"
	"matchbook/infra/log"
	"matchbook/infra/metrics"
	"matchbook/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := service.NewOrderService("MBK", book.FillInSequence, service.Options{Logger: log.Nop()})
	require.NoError(t, err)

	srv := New(svc, metrics.Init(), log.Nop())
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postOrder(t *testing.T, ts *httptest.Server, body string) (*http.Response, orderResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var or orderResponse
	_ = json.NewDecoder(resp.Body).Decode(&or)
	return resp, or
}

func TestOrderEntryRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp, or := postOrder(t, ts, `{"id":"O1","side":"buy","type":"limit","price":9995,"qty":50}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "O1", or.OrderID)
	assert.False(t, or.Matched)

	resp, or = postOrder(t, ts, `{"id":"O2","side":"sell","type":"limit","price":9995,"qty":20}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, or.Matched)
	require.Len(t, or.Fills, 2)
	assert.Equal(t, "O1", or.Fills[0].OrderID)
	assert.False(t, or.Fills[0].LastFill)
	assert.Equal(t, "O2", or.Fills[1].OrderID)
	assert.True(t, or.Fills[1].LastFill)
}

func TestOrderIDAssignedWhenMissing(t *testing.T) {
	ts := newTestServer(t)

	resp, or := postOrder(t, ts, `{"side":"buy","price":100,"qty":5}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, or.OrderID)
}

func TestOrderValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := postOrder(t, ts, `{"id":"B1","side":"sideways","price":100,"qty":5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postOrder(t, ts, `{"id":"B2","side":"buy","price":100,"qty":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	postOrder(t, ts, `{"id":"B3","side":"buy","price":100,"qty":5}`)
	resp, _ = postOrder(t, ts, `{"id":"B3","side":"buy","price":100,"qty":5}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestQuoteAndBook(t *testing.T) {
	ts := newTestServer(t)
	postOrder(t, ts, `{"id":"O1","side":"buy","type":"limit","price":9990,"qty":10}`)
	postOrder(t, ts, `{"id":"O2","side":"sell","type":"limit","price":10010,"qty":10}`)

	resp, err := http.Get(ts.URL + "/quote")
	require.NoError(t, err)
	defer resp.Body.Close()

	var q quoteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&q))
	require.NotNil(t, q.BestBid)
	require.NotNil(t, q.BestAsk)
	assert.Equal(t, int64(9990), *q.BestBid)
	assert.Equal(t, int64(10010), *q.BestAsk)

	bresp, err := http.Get(ts.URL + "/book")
	require.NoError(t, err)
	defer bresp.Body.Close()
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(bresp.Body)
	assert.Contains(t, buf.String(), "OrderBook for [MBK]:")
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
