package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"stocktake-service/internal/util"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const resultFragmentSelector = "div.wine-result-data"

// Config holds the remote catalog endpoints and the fixed client
// identity used against them.
type Config struct {
	SearchURL   string
	PriceURL    string
	UserAgent   string
	SessionUser string
	SessionHash string
	Timeout     time.Duration
}

// Client performs lookups against the remote product catalog. Remote or
// parse failures never surface as errors; callers get (_, false) and
// decide what absence means.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new external catalog client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

// Lookup searches the remote catalog by scan code and returns the best
// candidate name. When a search yields several result fragments, the
// longest title wins: fuller names beat generic ones. Ties keep the
// first fragment encountered.
func (c *Client) Lookup(ctx context.Context, scanCode string) (string, bool) {
	resp, ok := c.get(ctx, c.cfg.SearchURL, scanCode)
	if !ok {
		util.CatalogLookupsTotal.WithLabelValues("unavailable").Inc()
		return "", false
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.logger.Warn("Failed to parse catalog search response",
			zap.String("scan_code", scanCode),
			zap.Error(err))
		util.CatalogLookupsTotal.WithLabelValues("malformed").Inc()
		return "", false
	}

	best := ""
	doc.Find(resultFragmentSelector).Each(func(_ int, frag *goquery.Selection) {
		title := strings.TrimSpace(frag.Find("h3").First().Text())
		if utf8.RuneCountInString(title) > utf8.RuneCountInString(best) {
			best = title
		}
	})

	if best == "" {
		util.CatalogLookupsTotal.WithLabelValues("miss").Inc()
		return "", false
	}

	util.CatalogLookupsTotal.WithLabelValues("hit").Inc()
	return best, true
}

type priceSearchResponse struct {
	Products []struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	} `json:"products"`
}

// FetchAuthoritativePrice queries the price-search endpoint by name and
// returns the price of the first result. No ranking is applied beyond
// the remote service's own ordering.
func (c *Client) FetchAuthoritativePrice(ctx context.Context, name string) (decimal.Decimal, bool) {
	resp, ok := c.get(ctx, c.cfg.PriceURL, name)
	if !ok {
		util.PriceFetchesTotal.WithLabelValues("unavailable").Inc()
		return decimal.Zero, false
	}
	defer resp.Body.Close()

	var result priceSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("Failed to decode price search response",
			zap.String("name", name),
			zap.Error(err))
		util.PriceFetchesTotal.WithLabelValues("malformed").Inc()
		return decimal.Zero, false
	}

	if len(result.Products) == 0 {
		util.PriceFetchesTotal.WithLabelValues("miss").Inc()
		return decimal.Zero, false
	}

	util.PriceFetchesTotal.WithLabelValues("hit").Inc()
	return result.Products[0].Price, true
}

// get issues a single outbound query with the fixed identity. One
// attempt, no retry; any failure collapses to ok=false.
func (c *Client) get(ctx context.Context, endpoint, query string) (*http.Response, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, false
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.SessionUser != "" {
		req.AddCookie(&http.Cookie{Name: "User", Value: c.cfg.SessionUser})
		req.AddCookie(&http.Cookie{Name: "PWHash", Value: c.cfg.SessionHash})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Catalog request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, false
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		c.logger.Warn("Catalog request returned non-2xx",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return nil, false
	}

	return resp, true
}
