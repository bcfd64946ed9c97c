// Package backend calls the remote church API on behalf of the tenant and user of each request.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/faithpod/portal/core"
	"github.com/faithpod/portal/core/access"
	"github.com/faithpod/portal/core/tenant"
)

const tenantHeader = "X-Tenant-ID"

// Client is the church API client shared by every repository of this package.
type Client struct {
	httpclient *http.Client
	baseURL    func(ctx context.Context) string
}

// NewClient returns a Client routing each call to the API of the tenant found in its context.
func NewClient(resolver tenant.Resolver, timeout time.Duration) *Client {
	return &Client{
		httpclient: &http.Client{Timeout: timeout},
		baseURL: func(ctx context.Context) string {
			tc, _ := tenant.FromContext(ctx)
			return resolver.APIBaseURL(tc)
		},
	}
}

// apipath joins the escaped segments to the API root of ctx.
func (c *Client) apipath(ctx context.Context, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return strings.TrimSuffix(c.baseURL(ctx), "/") + "/" + strings.Join(escaped, "/")
}

// do sends body as JSON and decodes a successful answer into out (when not nil).
// errorFor overrides the error returned for specific status codes.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}, errorFor ErrorFor) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := access.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := tenant.IDFromContext(ctx); id != "" {
		req.Header.Set(tenantHeader, id)
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrapf(core.ErrUnavailable, "%s %s: %v", method, endpoint, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out, errorFor)
}

func getJSON[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	var v T
	err := c.do(ctx, http.MethodGet, endpoint, nil, &v, nil)
	return v, err
}

func sendJSON[T any](ctx context.Context, c *Client, method, endpoint string, body interface{}) (T, error) {
	var v T
	err := c.do(ctx, method, endpoint, body, &v, nil)
	return v, err
}

// getList decodes a JSON array, turning a null answer into an empty slice.
func getList[T any](ctx context.Context, c *Client, endpoint string) ([]T, error) {
	items, err := getJSON[[]T](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
