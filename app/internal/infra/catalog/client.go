// Package catalog reads product details and stock levels from the
// storefront API (GET products/{id}, GET stock/{id}).
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse catalog base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog base url %q must be absolute", baseURL)
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (*domproduct.Product, error) {
	var p domproduct.Product
	if err := c.get(ctx, "products", id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetStock(ctx context.Context, id int64) (*domproduct.Stock, error) {
	var s domproduct.Stock
	if err := c.get(ctx, "stock", id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) get(ctx context.Context, resource string, id int64, dst any) error {
	endpoint := c.baseURL.JoinPath(resource, strconv.FormatInt(id, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return errors.Wrapf(err, "build %s request", resource)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "get %s/%d", resource, id)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domproduct.ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("get %s/%d: unexpected status %d", resource, id, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return errors.Wrapf(err, "decode %s/%d", resource, id)
	}
	return nil
}
