// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed talks to the NCBI E-utilities: ESearch turns a query into
// PMIDs and EFetch returns the PubmedArticleSet XML for them, which is parsed
// into types.Article values with authors and affiliations filled in.
package pubmed

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/company-papers/internal/httputil"
	"github.com/pdiddy/company-papers/pkg/types"
)

// DefaultBaseURL is the E-utilities root.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	defaultTool       = "get-papers-list"
	defaultMaxResults = 100
	defaultBatchSize  = 200
	defaultTimeout    = 60 * time.Second

	// NCBI allows 3 requests per second without an API key and 10 with one.
	anonymousRate = 3
	keyedRate     = 10
)

// APIError reports a failed E-utilities call: a transport error, a non-200
// status, an ERROR element in the response, or an unreadable document.
type APIError struct {
	Op         string // "esearch" or "efetch"
	StatusCode int    // 0 when no HTTP response was received
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pubmed %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("pubmed %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Client is an E-utilities client. Requests from one Client share a rate
// limiter, so a Client may be used from several goroutines.
type Client struct {
	cfg     types.PubMedConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient fills unset fields of cfg with defaults. A nil httpClient gets a
// client with cfg.Timeout; a nil logger discards output.
func NewClient(cfg types.PubMedConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Tool == "" {
		cfg.Tool = defaultTool
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultTool
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = anonymousRate
		if cfg.APIKey != "" {
			rps = keyedRate
		}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// eSearchResult is the ESearch XML response.
type eSearchResult struct {
	Count  int      `xml:"Count"`
	IDs    []string `xml:"IdList>Id"`
	Errors []string `xml:"ERROR"`
}

// Search runs query against PubMed and returns up to maxResults PMIDs in
// relevance order. maxResults <= 0 uses the configured default. A query
// with no hits returns an empty slice.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}

	params := c.params()
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(maxResults))

	c.logger.Info("searching PubMed", zap.String("query", query), zap.Int("max_results", maxResults))
	body, err := c.get(ctx, "esearch", "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}

	var res eSearchResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, &APIError{Op: "esearch", Err: fmt.Errorf("parsing response: %w", err)}
	}
	if len(res.Errors) > 0 {
		return nil, &APIError{Op: "esearch", Err: errors.New(strings.Join(res.Errors, "; "))}
	}

	ids := make([]string, 0, len(res.IDs))
	for _, id := range res.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	c.logger.Info("search complete", zap.Int("count", res.Count), zap.Int("returned", len(ids)))
	return ids, nil
}

// Fetch retrieves and parses the records for pmids, BatchSize ids per
// request. Records that cannot be parsed are skipped. The first failed
// request aborts the fetch.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]types.Article, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	var articles []types.Article
	for start := 0; start < len(pmids); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(pmids))
		batch := pmids[start:end]

		params := c.params()
		params.Set("id", strings.Join(batch, ","))

		c.logger.Debug("fetching batch", zap.Int("from", start), zap.Int("size", len(batch)))
		body, err := c.get(ctx, "efetch", "efetch.fcgi", params)
		if err != nil {
			return nil, err
		}
		parsed, err := parseArticles(bytes.NewReader(body), c.logger)
		if err != nil {
			return nil, &APIError{Op: "efetch", Err: err}
		}
		articles = append(articles, parsed...)
	}
	c.logger.Info("fetch complete", zap.Int("requested", len(pmids)), zap.Int("parsed", len(articles)))
	return articles, nil
}

// params returns the query parameters every E-utilities call carries.
func (c *Client) params() url.Values {
	v := url.Values{}
	v.Set("db", "pubmed")
	v.Set("retmode", "xml")
	v.Set("tool", c.cfg.Tool)
	if c.cfg.Email != "" {
		v.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		v.Set("api_key", c.cfg.APIKey)
	}
	return v
}

func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Op: op, Err: err}
	}

	u := c.cfg.BaseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.logger)
	if err != nil {
		return nil, &APIError{Op: op, Err: httputil.RedactError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}
