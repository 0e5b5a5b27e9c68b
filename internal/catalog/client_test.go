package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(searchURL, priceURL string) *Client {
	return NewClient(Config{
		SearchURL:   searchURL,
		PriceURL:    priceURL,
		UserAgent:   "test-agent",
		SessionUser: "tester",
		SessionHash: "deadbeef",
	})
}

func TestLookupLongestTitleWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "000", r.URL.Query().Get("q"))
		w.Write([]byte(`
			<html><body>
			<div class="wine-result-data has-action"><h3>Red Wine</h3></div>
			<div class="wine-result-data has-action"><h3>Red Wine Reserve 2020</h3></div>
			</body></html>`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	name, ok := c.Lookup(context.Background(), "000")

	require.True(t, ok)
	assert.Equal(t, "Red Wine Reserve 2020", name)
}

func TestLookupTieKeepsFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<div class="wine-result-data"><h3>Pinot Noir</h3></div>
			<div class="wine-result-data"><h3>Pinot Gris</h3></div>`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	name, ok := c.Lookup(context.Background(), "111")

	require.True(t, ok)
	assert.Equal(t, "Pinot Noir", name)
}

func TestLookupNoTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="wine-result-data"><p>no heading here</p></div>`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, ok := c.Lookup(context.Background(), "222")

	assert.False(t, ok)
}

func TestLookupSendsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		user, err := r.Cookie("User")
		require.NoError(t, err)
		assert.Equal(t, "tester", user.Value)

		hash, err := r.Cookie("PWHash")
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", hash.Value)

		w.Write([]byte(`<div class="wine-result-data"><h3>Found</h3></div>`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, ok := c.Lookup(context.Background(), "333")
	assert.True(t, ok)
}

func TestLookupServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	_, ok := c.Lookup(context.Background(), "444")

	assert.False(t, ok)
}

func TestLookupUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(srv.URL, "")
	_, ok := c.Lookup(context.Background(), "555")

	assert.False(t, ok)
}

func TestFetchAuthoritativePriceFirstResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Red Wine Reserve 2020", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"name":"Red Wine Reserve 2020","price":129.90},{"name":"Red Wine","price":89.50}]}`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	price, ok := c.FetchAuthoritativePrice(context.Background(), "Red Wine Reserve 2020")

	require.True(t, ok)
	assert.Equal(t, "129.9", price.String())
}

func TestFetchAuthoritativePriceEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	_, ok := c.FetchAuthoritativePrice(context.Background(), "Unknown Wine")

	assert.False(t, ok)
}

func TestFetchAuthoritativePriceMissingCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	_, ok := c.FetchAuthoritativePrice(context.Background(), "Unknown Wine")

	assert.False(t, ok)
}

func TestFetchAuthoritativePriceMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	_, ok := c.FetchAuthoritativePrice(context.Background(), "Red Wine")

	assert.False(t, ok)
}
