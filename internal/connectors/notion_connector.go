package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-confops/internal/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxPageSize     = 100
	maxRateRetries  = 3
	defaultRetryGap = time.Second
)

type NotionConfig struct {
	BaseURL    string
	Token      string
	Version    string
	DatabaseID string
	RateLimit  float64 // requests per second
	HTTPClient *http.Client
}

// NotionConnector talks to the Notion REST API for a single database.
type NotionConnector struct {
	baseURL    string
	token      string
	version    string
	databaseID string
	http       *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewNotionConnector(cfg NotionConfig, logger *zap.Logger) *NotionConnector {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 3
	}
	return &NotionConnector{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		version:    cfg.Version,
		databaseID: cfg.DatabaseID,
		http:       client,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		logger:     logger,
	}
}

// NewNotionSource builds the connector from application config.
func NewNotionSource(cfg *config.Config, logger *zap.Logger) Source {
	return NewNotionConnector(NotionConfig{
		BaseURL:    cfg.NotionAPIURL,
		Token:      cfg.NotionToken,
		Version:    cfg.NotionVersion,
		DatabaseID: cfg.NotionDatabaseID,
		RateLimit:  cfg.NotionRateLimit,
	}, logger.Named("notion"))
}

func (c *NotionConnector) SourceID() string {
	return c.databaseID
}

type queryBody struct {
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
}

// QueryDatabase fetches one page of the configured database.
func (c *NotionConnector) QueryDatabase(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	body := queryBody{
		StartCursor: req.StartCursor,
		PageSize:    req.PageSize,
	}
	if body.PageSize <= 0 || body.PageSize > maxPageSize {
		body.PageSize = maxPageSize
	}
	if req.EditedAfter != nil {
		body.Filter = map[string]any{
			"timestamp": "last_edited_time",
			"last_edited_time": map[string]string{
				"after": req.EditedAfter.UTC().Format(time.RFC3339),
			},
		}
	}

	var resp QueryResponse
	path := "/v1/databases/" + url.PathEscape(c.databaseID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, fmt.Errorf("query database %s: %w", c.databaseID, err)
	}
	return &resp, nil
}

// RetrievePage fetches a single page by id.
func (c *NotionConnector) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, &page); err != nil {
		return nil, fmt.Errorf("retrieve page %s: %w", pageID, err)
	}
	return &page, nil
}

func (c *NotionConnector) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", c.version)
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateRetries {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			c.logger.Warn("Notion rate limited, backing off",
				zap.String("path", path),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1))
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = decodeResponse(resp, out)
		resp.Body.Close()
		return err
	}
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultRetryGap
}
