package flathub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// DefaultURL is the public Flathub instance.
const DefaultURL = "https://flathub.flatironinstitute.org"

var (
	// ErrUnavailable is returned when the API could not be reached.
	ErrUnavailable = errors.New("flathub API unavailable")

	// ErrAPI is returned when the API answered with a non-successful status.
	ErrAPI = errors.New("flathub API error")
)

const maxErrorBody = 512

// Client queries the Flathub API. All requests are sent under the /api prefix of the base URL.
type Client struct {
	options

	baseURL string
	l       *slog.Logger
}

// New builds a [Client] for the API served at baseURL.
//
// An empty baseURL defaults to [DefaultURL].
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}

	return &Client{
		options: optionsWithDefaults(opts),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		l:       slog.Default().With(slog.String("module", "flathub")),
	}
}

// Catalogs lists the available catalogs.
func (c *Client) Catalogs(ctx context.Context) ([]CatalogMeta, error) {
	var catalogs []CatalogMeta
	if err := c.do(ctx, http.MethodGet, "/", nil, &catalogs); err != nil {
		return nil, err
	}

	return catalogs, nil
}

// Catalog retrieves the full metadata of a catalog, including its field hierarchy.
func (c *Client) Catalog(ctx context.Context, catalog string) (*Catalog, error) {
	var meta Catalog
	if err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(catalog), nil, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Data retrieves a page of rows as flat field-to-value mappings.
// Numeric values are decoded as [json.Number].
func (c *Client) Data(ctx context.Context, catalog string, req DataRequest) ([]Row, error) {
	var rows []Row
	if err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(catalog)+"/data", req, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// Count returns the number of rows matching some filters.
func (c *Client) Count(ctx context.Context, catalog string, req CountRequest) (int64, error) {
	var count int64
	if err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(catalog)+"/count", req, &count); err != nil {
		return 0, err
	}

	return count, nil
}

// Histogram retrieves bucketed counts across one or more fields.
func (c *Client) Histogram(ctx context.Context, catalog string, req HistogramRequest) (*Histogram, error) {
	var histogram Histogram
	if err := c.do(ctx, http.MethodPost, "/"+url.PathEscape(catalog)+"/histogram", req, &histogram); err != nil {
		return nil, err
	}

	return &histogram, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	endpoint := c.baseURL + "/api" + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request to %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.l.Debug("fetching", slog.String("method", method), slog.String("url", endpoint))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrAPI, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	dec := json.NewDecoder(resp.Body)
	if _, isRows := target.(*[]Row); isRows {
		// row values stay as text: 64-bit identifiers exceed float64 precision
		dec.UseNumber()
	}

	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}

	c.l.Debug("got response", slog.String("url", endpoint), slog.Int("status", resp.StatusCode))

	return nil
}
